// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package terminal

import "testing"

func TestWidthFallsBackWithoutTerminal(t *testing.T) {
	if IsInteractive() {
		t.Skip("stdout is a terminal")
	}
	if got := Width(); got != DefaultWidth {
		t.Errorf("Width() = %d, want %d", got, DefaultWidth)
	}
}
