package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/phrazzld/huddle-api/internal/service/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func parseOutput(t *testing.T, out string) map[string]string {
	t.Helper()

	fields := map[string]string{}
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		name, value, ok := strings.Cut(line, ":")
		require.True(t, ok, line)
		fields[name] = strings.TrimSpace(value)
	}
	return fields
}

func TestRun_GeneratedKeyVerifies(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	require.NoError(t, run(strings.NewReader(""), &out, false, bcrypt.MinCost))

	fields := parseOutput(t, out.String())
	require.NotEmpty(t, fields["Key"])

	verifier, err := auth.NewBcryptAdminKeyVerifier(fields["Hash"])
	require.NoError(t, err)
	assert.NoError(t, verifier.Verify(fields["Key"]))
}

func TestRun_KeyFromStdin(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	require.NoError(t, run(strings.NewReader("operator-key\n"), &out, true, bcrypt.MinCost))

	fields := parseOutput(t, out.String())
	assert.NotContains(t, fields, "Key")
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(fields["Hash"]), []byte("operator-key")))
}

func TestRun_Errors(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	assert.Error(t, run(strings.NewReader("\n"), &out, true, bcrypt.MinCost))
	assert.Error(t, run(strings.NewReader("k"), &out, true, bcrypt.MaxCost+1))
}

func TestGenerateKey(t *testing.T) {
	t.Parallel()

	a, err := generateKey()
	require.NoError(t, err)
	b, err := generateKey()
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.Len(t, a, 43)
}
