// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package logging

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/pterm/pterm"

	qerrors "querydeck/cli/internal/errors"
	"querydeck/cli/internal/httperrors"
)

// PresentError formats an error for user display with masking.
// Typed failures are shown by message only; the kind is kept for the log.
func PresentError(context string, err error) string {
	if err == nil {
		return ""
	}
	if e, ok := qerrors.As(err); ok {
		return fmt.Sprintf("%s: %s", context, Mask(e.Message))
	}
	return fmt.Sprintf("%s: %s", context, Mask(err.Error()))
}

// PresentFailure shows a failed query to the user and returns the error the
// command should exit with. A relay that could not be reached gets the network
// explanation; other failures get their details in a box.
func PresentFailure(context string, err error) error {
	if err == nil {
		return nil
	}
	e, ok := qerrors.As(err)
	switch {
	case ok && e.Kind == qerrors.UnexpectedClientError && e.Err != nil:
		_ = httperrors.FormatNetworkError(e.Err, context)
	case ok && e.Details != nil:
		if details, mErr := json.MarshalIndent(e.Details, "", "  "); mErr == nil {
			pterm.DefaultBox.WithTitle("Details").Println(Mask(string(details)))
		}
	}
	return errors.New(PresentError(context, err))
}
