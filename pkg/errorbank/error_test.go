package errorbank

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"google.golang.org/grpc/codes"
)

func TestStatusAndGRPCMapping(t *testing.T) {
	cases := []struct {
		err    *AppError
		status int
		code   codes.Code
	}{
		{BadRequest("bad"), http.StatusBadRequest, codes.InvalidArgument},
		{Unauthorized("who"), http.StatusUnauthorized, codes.Unauthenticated},
		{Conflict("busy"), http.StatusConflict, codes.AlreadyExists},
		{NotFound("gone"), http.StatusNotFound, codes.NotFound},
		{New(KindUnprocessableEntity, "nope"), http.StatusUnprocessableEntity, codes.FailedPrecondition},
		{Internal("boom"), http.StatusInternalServerError, codes.Internal},
	}

	for _, tc := range cases {
		if got := tc.err.StatusCode(); got != tc.status {
			t.Fatalf("%s: expected status %d, got %d", tc.err.Kind(), tc.status, got)
		}
		if got := tc.err.GRPCCode(); got != tc.code {
			t.Fatalf("%s: expected grpc code %s, got %s", tc.err.Kind(), tc.code, got)
		}
	}
}

type sheetErr struct{}

func (sheetErr) Error() string { return "no sheet" }

func TestCauseIsReachable(t *testing.T) {
	err := fmt.Errorf("import: %w", BadRequest("no sheet", WithCause(sheetErr{}), WithDetail("file", "a.xlsx")))

	var target sheetErr
	if !errors.As(err, &target) {
		t.Fatalf("expected cause to be reachable through errors.As")
	}
	if !Is(err, KindBadRequest) {
		t.Fatalf("expected kind bad_request")
	}
	appErr := From(err)
	if appErr.Details()["file"] != "a.xlsx" {
		t.Fatalf("unexpected details: %v", appErr.Details())
	}
}

func TestFromWrapsUnknownErrors(t *testing.T) {
	appErr := From(errors.New("disk full"))
	if appErr.Kind() != KindInternal {
		t.Fatalf("expected internal kind, got %s", appErr.Kind())
	}
	if From(nil) != nil {
		t.Fatalf("expected nil for nil error")
	}
}
