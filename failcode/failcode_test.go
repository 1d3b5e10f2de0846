package failcode

import (
	"errors"
	"testing"
)

func TestOfKnownErrors(t *testing.T) {
	cases := []struct {
		err  error
		want int32
	}{
		{nil, 0},
		{ErrInvalidArgument, 1},
		{ErrPermissionDenied, 2},
		{ErrBadAddress, 3},
		{ErrNotSupported, 4},
		{ErrIO, 5},
		{ErrNoData, 6},
		{ErrNoSpace, 7},
		{ErrOverflow, 8},
		{ErrIllegalSequence, 9},
		{ErrCancelled, 10},
		{ErrBusy, 16},
	}
	for _, c := range cases {
		if got := Of(c.err); got != c.want {
			t.Errorf("Of(%v) = %d, want %d", c.err, got, c.want)
		}
	}
}

func TestOfUnknownErrorFallsBackToIO(t *testing.T) {
	if got := Of(errors.New("something unmapped")); got != Of(ErrIO) {
		t.Fatalf("Of(unmapped) = %d, want %d (ErrIO's code)", got, Of(ErrIO))
	}
}
