package core

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{"nil", nil, ""},
		{"import not found", fmt.Errorf("load import: %w", ErrImportNotFound), "IMP001"},
		{"busy", ErrTooManyImports, "IMP002"},
		{"no mappings", ErrNoMappings, "IMP003"},
		{"no rows", ErrNoRows, "IMP004"},
		{"duplicate header", errors.New(`duplicate header "Name"`), "HDR004"},
		{"too many columns", errors.New("too many columns: 60 (max 50)"), "HDR003"},
		{"unsupported", errors.New("unsupported file format: .pdf"), "FILE002"},
		{"duplicate key", errors.New("ERROR: duplicate key value violates unique constraint"), "DB001"},
		{"foreign key", errors.New("insert or update violates foreign key constraint"), "DB003"},
		{"connection refused", errors.New("dial tcp 127.0.0.1:5432: connection refused"), "DB004"},
		{"cancelled", fmt.Errorf("batch cancelled: %w", context.Canceled), "REQ001"},
		{"deadline", fmt.Errorf("batch cancelled: %w", context.DeadlineExceeded), "REQ002"},
		{"timeout", errors.New("i/o timeout"), "DB006"},
		{"invalid request", fmt.Errorf("%w: bad import id", ErrInvalidRequest), "REQ003"},
		{"no file", errors.New("no file provided"), "FILE004"},
		{"unknown", errors.New("something odd"), "ERR000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MapError(tt.err).Code; got != tt.wantCode {
				t.Errorf("MapError(%v).Code = %q, want %q", tt.err, got, tt.wantCode)
			}
		})
	}
}

func TestFormatUserError(t *testing.T) {
	got := FormatUserError(ErrImportNotFound)
	want := "Import not found (Code: IMP001). Upload the file again to start a new import"
	if got != want {
		t.Errorf("FormatUserError = %q, want %q", got, want)
	}
	if FormatUserError(nil) != "" {
		t.Error("FormatUserError(nil) should be empty")
	}
}

func TestIsUserFacing(t *testing.T) {
	if IsUserFacing(nil) {
		t.Error("nil should not be user facing")
	}
	if !IsUserFacing(ErrImportNotFound) {
		t.Error("ErrImportNotFound should be user facing")
	}
	if IsUserFacing(errors.New("segfault")) {
		t.Error("unknown error should not be user facing")
	}
}
