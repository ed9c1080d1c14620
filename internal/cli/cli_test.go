package cli

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandsHaveUniqueNames(t *testing.T) {
	seen := map[string]bool{}
	for _, c := range Commands {
		assert.False(t, seen[c.Name()], "duplicate command %s", c.Name())
		seen[c.Name()] = true
		assert.NotEmpty(t, c.Synopsis())
		assert.NotEmpty(t, c.Usage())
	}
	for _, name := range []string{"watch", "login", "logout", "budget", "expense", "summary", "balances", "purge"} {
		assert.True(t, seen[name], "missing command %s", name)
	}
}

func TestSplitList(t *testing.T) {
	assert.Nil(t, splitList(""))
	assert.Nil(t, splitList("  "))
	assert.Equal(t, []string{"X", " Y", "Z"}, splitList("X, Y,Z"))
}

func TestParseDateOrToday(t *testing.T) {
	d, err := parseDateOrToday("2024-03-15")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-15", d.String())

	d, err = parseDateOrToday("")
	require.NoError(t, err)
	assert.Equal(t, time.Now().Format("2006-01-02"), d.String())

	_, err = parseDateOrToday("15/03/2024")
	assert.Error(t, err)
}
