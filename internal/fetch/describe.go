// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package fetch

import (
	qerrors "querydeck/cli/internal/errors"
)

// UnexpectedMessage is shown for failures that cannot be classified.
const UnexpectedMessage = "unexpected error"

// Describe converts any error reaching a Query into the kind and message of a
// Failed state. Relay failures keep their own kind and message.
func Describe(err error) (qerrors.Kind, string) {
	if err == nil {
		return "", ""
	}
	if e, ok := qerrors.As(err); ok && e.Kind.Known() {
		if e.Message == "" {
			return e.Kind, e.Kind.DefaultMessage()
		}
		return e.Kind, e.Message
	}
	return qerrors.UnexpectedClientError, UnexpectedMessage
}

func failedState[T any](query string, err error) State[T] {
	kind, msg := Describe(err)
	s := FailedState[T](query, kind, msg)
	s.err = err
	return s
}
