package eligibility

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGate_CheckAction(t *testing.T) {
	t.Parallel()

	t.Run("verified is allowed", func(t *testing.T) {
		t.Parallel()

		for _, action := range []Action{ActionRecharge, ActionSend} {
			d := CheckAction(Verified{}, action)

			assert.True(t, d.Allowed)
			assert.Empty(t, d.Redirect)
		}
	})

	testTable := []struct {
		status Status
		action Action
		name   string
	}{
		{Pending{}, ActionSend, "pending send"},
		{Rejected{Reason: "x"}, ActionRecharge, "rejected recharge"},
		{Unverified{}, ActionSend, "unverified send"},
		{nil, ActionRecharge, "nil status"},
	}

	for _, testCase := range testTable {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			d := CheckAction(testCase.status, testCase.action)

			assert.False(t, d.Allowed)
			assert.Equal(t, RedirectVerification, d.Redirect)
			assert.NotEmpty(t, d.Prompt)
		})
	}

	t.Run("rejection reason is surfaced", func(t *testing.T) {
		t.Parallel()

		d := CheckAction(Rejected{Reason: "blurry selfie"}, ActionSend)

		assert.Contains(t, d.Prompt, "blurry selfie")
	})
}

func TestGate_Require(t *testing.T) {
	t.Parallel()

	require.NoError(t, Require(Verified{}, ActionSend))

	err := Require(Pending{}, ActionRecharge)

	var denied *DeniedError

	require.True(t, errors.As(err, &denied))
	assert.Equal(t, ActionRecharge, denied.Action)
	assert.Equal(t, RedirectVerification, denied.Decision.Redirect)
}

func TestStatus_Parse(t *testing.T) {
	t.Parallel()

	testTable := []struct {
		expected Status
		raw      string
		reason   string
	}{
		{Unverified{}, "", ""},
		{Unverified{}, "unverified", ""},
		{Pending{}, "pending", ""},
		{Verified{}, "Verified", ""},
		{Rejected{Reason: "expired document"}, "rejected", "expired document"},
	}

	for _, testCase := range testTable {
		t.Run(testCase.raw, func(t *testing.T) {
			t.Parallel()

			s, err := ParseStatus(testCase.raw, testCase.reason)

			require.NoError(t, err)
			assert.Equal(t, testCase.expected, s)
		})
	}

	t.Run("unknown", func(t *testing.T) {
		t.Parallel()

		_, err := ParseStatus("frozen", "")

		assert.ErrorIs(t, err, ErrUnknownStatus)
	})
}

func TestStatus_Transitions(t *testing.T) {
	t.Parallel()

	t.Run("full cycle", func(t *testing.T) {
		t.Parallel()

		s, err := Submit(Unverified{})
		require.NoError(t, err)
		assert.Equal(t, Pending{}, s)

		s, err = Decide(s, false, "blurry")
		require.NoError(t, err)
		assert.Equal(t, Rejected{Reason: "blurry"}, s)
		assert.Equal(t, "blurry", Reason(s))

		s, err = Submit(s)
		require.NoError(t, err)
		assert.Equal(t, Pending{}, s)

		s, err = Decide(s, true, "")
		require.NoError(t, err)
		assert.Equal(t, Verified{}, s)
	})

	t.Run("verified is terminal", func(t *testing.T) {
		t.Parallel()

		_, err := Submit(Verified{})
		assert.ErrorIs(t, err, ErrInvalidTransition)

		_, err = Decide(Verified{}, false, "")
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("decide requires pending", func(t *testing.T) {
		t.Parallel()

		_, err := Decide(Unverified{}, true, "")

		assert.ErrorIs(t, err, ErrInvalidTransition)
	})
}
