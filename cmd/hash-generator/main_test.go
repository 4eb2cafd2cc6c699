package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPasswords(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	err := hashPasswords(&buf, []string{"testpassword123", "тест123"}, bcrypt.MinCost)
	require.NoError(t, err)

	blocks := strings.Split(strings.TrimSpace(buf.String()), "\n\n")
	require.Len(t, blocks, 2)
	for i, password := range []string{"testpassword123", "тест123"} {
		lines := strings.Split(blocks[i], "\n")
		require.Len(t, lines, 2)
		assert.Equal(t, "Password: "+password, lines[0])
		hash := strings.TrimPrefix(lines[1], "Hash: ")
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)))
	}
}

func TestHashPasswordsRejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		passwords []string
		cost      int
		wantErr   string
	}{
		{name: "too short", passwords: []string{"abc"}, cost: bcrypt.MinCost, wantErr: "at least 6"},
		{name: "too long", passwords: []string{strings.Repeat("x", 73)}, cost: bcrypt.MinCost, wantErr: "at most 72"},
		{name: "cost too low", passwords: []string{"password"}, cost: 1, wantErr: "cost must be between"},
		{name: "nothing to hash", cost: bcrypt.MinCost, wantErr: "no passwords"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			err := hashPasswords(&buf, tc.passwords, tc.cost)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
			assert.Empty(t, buf.String())
		})
	}
}

func TestReadLinesSkipsBlank(t *testing.T) {
	t.Parallel()

	lines, err := readLines(strings.NewReader("first\n\nsecond\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, lines)
}
