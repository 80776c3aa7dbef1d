package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/aerobonkers/pkg/config"
	"github.com/ssargent/aerobonkers/pkg/di"
	"github.com/ssargent/aerobonkers/pkg/ledger"
)

func TestMain(m *testing.M) {
	// keep a real ~/.config/aerobonkers/config.yaml out of the tests
	home, err := os.MkdirTemp("", "aerobonkers-home")
	if err != nil {
		panic(err)
	}
	os.Setenv("HOME", home)
	code := m.Run()
	os.RemoveAll(home)
	os.Exit(code)
}

func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), errOut.String(), err
}

// writeROM writes a blank cartridge image with one airline name
func writeROM(t *testing.T, dir string) string {
	t.Helper()
	image := make([]byte, 0x80000)
	copy(image[0x764d3:], "GP-ANDO")

	path := filepath.Join(dir, "aerobiz.sfc")
	require.NoError(t, os.WriteFile(path, image, 0644))
	return path
}

func TestRootCommand_Arguments(t *testing.T) {
	SetContainer(di.NewContainer(nil))

	t.Run("no rom", func(t *testing.T) {
		_, errOut, err := runCLI(t)
		require.Error(t, err)
		assert.Contains(t, errOut, usageMessage)
	})

	t.Run("two roms", func(t *testing.T) {
		_, errOut, err := runCLI(t, "a.sfc", "b.sfc")
		require.Error(t, err)
		assert.Contains(t, errOut, usageMessage)
	})

	t.Run("unreadable rom", func(t *testing.T) {
		out, errOut, err := runCLI(t, filepath.Join(t.TempDir(), "missing.sfc"))
		require.Error(t, err)
		assert.Contains(t, out, "Rom found.")
		assert.Contains(t, errOut, "Error when reading file.")
	})

	t.Run("not a cartridge", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "small.sfc")
		require.NoError(t, os.WriteFile(path, make([]byte, 1000), 0644))
		_, _, err := runCLI(t, "-o", filepath.Join(t.TempDir(), "out.sfc"), path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "randomization failed")
	})
}

func TestRootCommand_Randomize(t *testing.T) {
	SetContainer(di.NewContainer(nil))
	dir := t.TempDir()
	romPath := writeROM(t, dir)
	output := filepath.Join(dir, "out.sfc")
	ledgerDir := filepath.Join(dir, "runs")
	metricsFile := filepath.Join(dir, "aerobonkers.prom")

	out, _, err := runCLI(t, "--seed", "42", "-o", output,
		"--ledger-dir", ledgerDir, "--metrics-file", metricsFile, romPath)
	require.NoError(t, err)

	assert.Contains(t, out, "Rom found.")
	assert.Contains(t, out, "Randomizing airline names.")
	assert.Contains(t, out, "Randomizing plane data.")
	assert.Contains(t, out, "Seed: 42")
	assert.Contains(t, out, "Randomization successful. Saved to "+output)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Len(t, data, 0x80000)
	assert.Equal(t, "AEROBONKERS", string(data[0x7fc0:0x7fc0+11]))

	metrics, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(metrics), `aerobonkers_runs_total{outcome="done"} 1`)

	runID := regexp.MustCompile(`Run (\S+) recorded\.`).FindStringSubmatch(out)
	require.Len(t, runID, 2)

	out, _, err = runCLI(t, "history", "list", "--ledger-dir", ledgerDir)
	require.NoError(t, err)
	assert.Contains(t, out, runID[1])
	assert.Contains(t, out, "seed=42")

	out, _, err = runCLI(t, "history", "show", runID[1], "--ledger-dir", ledgerDir)
	require.NoError(t, err)
	assert.Contains(t, out, "Seed:  42")
	assert.Contains(t, out, "Flags: crazy=false data=true names=true")
	assert.Contains(t, out, "Order: airline names, plane data")
	assert.Contains(t, out, "airline names[0].name")
}

func TestRootCommand_Deterministic(t *testing.T) {
	SetContainer(di.NewContainer(nil))
	dir := t.TempDir()
	romPath := writeROM(t, dir)

	first := filepath.Join(dir, "first.sfc")
	second := filepath.Join(dir, "second.sfc")
	_, _, err := runCLI(t, "--seed", "7", "--crazy", "-o", first, romPath)
	require.NoError(t, err)
	_, _, err = runCLI(t, "--seed", "7", "--crazy", "-o", second, romPath)
	require.NoError(t, err)

	a, err := os.ReadFile(first)
	require.NoError(t, err)
	b, err := os.ReadFile(second)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestRootCommand_NothingEnabled(t *testing.T) {
	SetContainer(di.NewContainer(nil))
	dir := t.TempDir()
	romPath := writeROM(t, dir)
	output := filepath.Join(dir, "out.sfc")

	out, _, err := runCLI(t, "--no-data", "--no-names", "--seed", "3", "-o", output, romPath)
	require.NoError(t, err)
	assert.NotContains(t, out, "Randomizing")

	orig, err := os.ReadFile(romPath)
	require.NoError(t, err)
	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, orig[:0x7fc0], data[:0x7fc0])
	assert.Equal(t, orig[0x7fe0:], data[0x7fe0:])
}

func TestRootCommand_ConfigFile(t *testing.T) {
	SetContainer(di.NewContainer(nil))
	dir := t.TempDir()
	romPath := writeROM(t, dir)

	cfg := config.DefaultConfig()
	cfg.Seed = 5
	cfg.Output = filepath.Join(dir, "from-config.sfc")
	cfg.Flags["names"] = false
	configPath := filepath.Join(dir, "aerobonkers.yaml")
	require.NoError(t, config.SaveConfig(cfg, configPath))

	out, _, err := runCLI(t, "--config", configPath, romPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Seed: 5")
	assert.NotContains(t, out, "Randomizing airline names.")
	assert.Contains(t, out, "Randomizing plane data.")
	assert.FileExists(t, cfg.Output)

	// flags win over the file
	override := filepath.Join(dir, "override.sfc")
	out, _, err = runCLI(t, "--config", configPath, "--seed", "6", "-o", override, romPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Seed: 6")
	assert.FileExists(t, override)

	_, _, err = runCLI(t, "--config", filepath.Join(dir, "missing.yaml"), romPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config file does not exist")
}

func TestRootCommand_DefaultConfigPath(t *testing.T) {
	SetContainer(di.NewContainer(nil))
	dir := t.TempDir()
	romPath := writeROM(t, dir)
	t.Setenv("HOME", filepath.Join(dir, "home"))

	cfg := config.DefaultConfig()
	cfg.Seed = 11
	cfg.Output = filepath.Join(dir, "default-config.sfc")
	cfg.Flags["data"] = false
	require.NoError(t, config.SaveConfig(cfg, config.GetDefaultConfigPath()))

	out, _, err := runCLI(t, romPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Seed: 11")
	assert.NotContains(t, out, "Randomizing plane data.")
	assert.FileExists(t, cfg.Output)

	// an explicit --config wins over the default path
	explicit := config.DefaultConfig()
	explicit.Seed = 12
	explicit.Output = filepath.Join(dir, "explicit.sfc")
	explicitPath := filepath.Join(dir, "explicit.yaml")
	require.NoError(t, config.SaveConfig(explicit, explicitPath))

	out, _, err = runCLI(t, "--config", explicitPath, romPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Seed: 12")
	assert.FileExists(t, explicit.Output)
}

func TestHistoryCommand_Delete(t *testing.T) {
	SetContainer(di.NewContainer(nil))
	dir := t.TempDir()
	romPath := writeROM(t, dir)
	ledgerDir := filepath.Join(dir, "runs")

	out, _, err := runCLI(t, "--seed", "9", "-o", filepath.Join(dir, "out.sfc"),
		"--ledger-dir", ledgerDir, romPath)
	require.NoError(t, err)
	runID := regexp.MustCompile(`Run (\S+) recorded\.`).FindStringSubmatch(out)
	require.Len(t, runID, 2)

	out, _, err = runCLI(t, "history", "delete", runID[1], "--ledger-dir", ledgerDir)
	require.NoError(t, err)
	assert.Contains(t, out, "Successfully deleted run "+runID[1])

	out, _, err = runCLI(t, "history", "list", "--ledger-dir", ledgerDir)
	require.NoError(t, err)
	assert.Contains(t, out, "No runs recorded.")

	_, _, err = runCLI(t, "history", "delete", runID[1], "--ledger-dir", ledgerDir)
	require.Error(t, err)
	assert.ErrorIs(t, err, ledger.ErrRunNotFound)

	_, _, err = runCLI(t, "history", "delete", "nope", "--ledger-dir", ledgerDir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid run id")
}

func TestRootCommand_NoContainer(t *testing.T) {
	SetContainer(nil)
	defer SetContainer(di.NewContainer(nil))

	_, _, err := runCLI(t, "rom.sfc")
	require.Error(t, err)
	assert.ErrorIs(t, err, errNoContainer)
}

func TestHistoryCommand_Errors(t *testing.T) {
	SetContainer(di.NewContainer(nil))

	_, _, err := runCLI(t, "history", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no ledger directory configured")

	_, _, err = runCLI(t, "history", "show", "nope", "--ledger-dir", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid run id")

	out, _, err := runCLI(t, "history", "list", "--ledger-dir", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No runs recorded.")
}

func TestNewLogger(t *testing.T) {
	logger, err := newLogger("warn", false)
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(-1))

	logger, err = newLogger("warn", true)
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(-1))

	_, err = newLogger("loud", false)
	assert.Error(t, err)
}
