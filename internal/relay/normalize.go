// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package relay

import (
	"context"
	"errors"

	qerrors "querydeck/cli/internal/errors"
	"querydeck/cli/internal/httperrors"
)

// Normalize converts any downstream error into a Failure. Typed engine errors
// keep their kind, message and details; network errors become
// ConnectionFailed; everything else is a DownstreamError whose details are the
// error text.
func Normalize(err error) *Failure {
	if err == nil {
		return nil
	}

	if e, ok := qerrors.As(err); ok && e.Kind.Known() {
		out := *e
		if out.Message == "" {
			out.Message = out.Kind.DefaultMessage()
		}
		return &out
	}

	if errors.Is(err, context.Canceled) || httperrors.IsConnectionFailure(err) {
		return qerrors.Wrap(qerrors.ConnectionFailed, qerrors.ConnectionFailed.DefaultMessage(), err).
			WithDetails(httperrors.Describe(err))
	}

	return qerrors.Wrap(qerrors.DownstreamError, qerrors.DownstreamError.DefaultMessage(), err).
		WithDetails(err.Error())
}
