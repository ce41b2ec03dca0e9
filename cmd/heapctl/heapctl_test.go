package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/fixedheap/heapfile"
	"github.com/joshuapare/fixedheap/internal/logger"
)

const deviceConn = "HostName=example-hub.azure-devices.net;DeviceId=sensor-01;SharedAccessKey=c2VjcmV0LWtleS1mb3ItdGVzdHM="

func TestDemoCommand(t *testing.T) {
	tests := []struct {
		name        string
		size        int
		json        bool
		verbose     bool
		wantErr     bool
		wantContain []string
	}{
		{
			name: "default",
			size: 8192,
			wantContain: []string{
				"Mixed sequence on a 8192 byte heap",
				"alloc 4000",
				`final string: "0123456789abcdefghijABCDEFGHIJ"`,
			},
		},
		{
			name:        "verbose dumps lists",
			size:        8192,
			verbose:     true,
			wantContain: []string{"Used list", "Free list", "bytes accounted for = 08192"},
		},
		{
			name:        "json",
			size:        8192,
			json:        true,
			wantContain: []string{`"step": "alloc 40"`, `"free_bytes"`},
		},
		{
			name:    "heap too small for scenario",
			size:    1024,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetFlags()
			demoSize, jsonOut, verbose = tt.size, tt.json, tt.verbose

			output, err := captureOutput(t, runDemo)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.json {
				assertJSON(t, output)
			}
			assertContains(t, output, tt.wantContain)
		})
	}
}

func TestStressCommand(t *testing.T) {
	resetFlags()
	stressSize, stressCount, stressRounds, stressSeed = 8192, 300, 5, 42

	output, err := captureOutput(t, runStress)
	require.NoError(t, err)
	assertContains(t, output, []string{"seed 42: 5 rounds", "all invariants held"})

	resetFlags()
	jsonOut = true
	output, err = captureOutput(t, runStress)
	require.NoError(t, err)
	assertJSON(t, output)
	assertContains(t, output, []string{`"free_blocks": 1`, `"used_blocks": 0`})

	resetFlags()
	stressMax = 0
	_, err = captureOutput(t, runStress)
	require.Error(t, err)
}

func TestSasCommand(t *testing.T) {
	resetFlags()
	sasEpoch = 0

	output, err := captureOutput(t, func() error { return runSas([]string{deviceConn}) })
	require.NoError(t, err)
	assertContains(t, output, []string{
		"HostName = example-hub.azure-devices.net",
		"DeviceId = sensor-01",
		"MQTT client id = sensor-01",
		"MQTT user name = example-hub.azure-devices.net/sensor-01",
		"MQTT server name = example-hub.azure-devices.net",
		"MQTT password = SharedAccessSignature sr=example-hub.azure-devices.net%2Fdevices%2Fsensor-01" +
			"&sig=CXG7oeNZdO%2FVhYzYy9pELX%2BG5%2BphLry4HBKS%2BepPeWo%3D&se=3600",
	})

	resetFlags()
	sasEpoch, jsonOut = 0, true
	output, err = captureOutput(t, func() error { return runSas([]string{deviceConn}) })
	require.NoError(t, err)
	assertJSON(t, output)
	assertContains(t, output, []string{`"client_id": "sensor-01"`})

	resetFlags()
	_, err = captureOutput(t, func() error { return runSas([]string{"HostName=h;DeviceId=d"}) })
	require.Error(t, err)

	resetFlags()
	sasHeapSize = 100
	_, err = captureOutput(t, func() error { return runSas([]string{deviceConn}) })
	require.Error(t, err)
}

func TestImageCommands(t *testing.T) {
	resetFlags()
	path := filepath.Join(t.TempDir(), "state.img")

	imageSize = 2048
	output, err := captureOutput(t, func() error { return runImageCreate([]string{path}) })
	require.NoError(t, err)
	assertContains(t, output, []string{"2048 byte heap"})

	// Put something in it through the library.
	f, err := heapfile.Open(path, nil)
	require.NoError(t, err)
	_, err = f.Heap().Alloc(100)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	verbose = true
	output, err = captureOutput(t, func() error { return runImageInspect([]string{path}) })
	require.NoError(t, err)
	assertContains(t, output, []string{"Length:   2048 bytes", "Used:     100 bytes in 1 blocks", "used  100"})

	verbose, jsonOut = false, true
	output, err = captureOutput(t, func() error { return runImageInspect([]string{path}) })
	require.NoError(t, err)
	assertJSON(t, output)

	jsonOut = false
	output, err = captureOutput(t, func() error { return runImageCheck([]string{path}) })
	require.NoError(t, err)
	assert.Contains(t, output, ": ok")

	img, err := os.ReadFile(path)
	require.NoError(t, err)
	img[len(img)-1] ^= 0xFF
	require.NoError(t, os.WriteFile(path, img, 0o644))
	_, err = captureOutput(t, func() error { return runImageCheck([]string{path}) })
	require.ErrorIs(t, err, heapfile.ErrChecksum)

	_, err = captureOutput(t, func() error { return runImageCreate([]string{path}) })
	require.Error(t, err, "create must not overwrite")
}

func TestSetupLogging_LogDir(t *testing.T) {
	resetFlags()
	t.Cleanup(func() {
		resetFlags()
		_ = setupLogging(nil, nil)
	})

	dir := t.TempDir()
	logLevel, logDir = "info", dir
	require.NoError(t, setupLogging(nil, nil))
	logger.Info("opened", "dir", dir)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	data, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)
	assert.Contains(t, string(data), "msg=opened")

	logLevel = "loud"
	assert.Error(t, setupLogging(nil, nil))
}

func TestVersionCommand(t *testing.T) {
	assert.Equal(t, version, rootCmd.Version)

	output, err := captureOutput(t, func() error {
		versionCmd.Run(versionCmd, nil)
		return nil
	})
	require.NoError(t, err)
	assertContains(t, output, []string{"heapctl " + version, "commit: none"})
}
