// ABOUTME: Integration tests for the lift CLI against a live lift-mirror server.
// ABOUTME: Builds both binaries, logs a workout on one device and pulls it on another.
package test

import (
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"
)

func build(t *testing.T, root, name string) string {
	t.Helper()
	bin := filepath.Join(t.TempDir(), name)
	cmd := exec.Command("go", "build", "-o", bin, "./cmd/"+name)
	cmd.Dir = root
	if output, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("Failed to build %s: %v\n%s", name, err, output)
	}
	return bin
}

func freeAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := l.Addr().String()
	_ = l.Close()
	return addr
}

func waitForPing(t *testing.T, url string) {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(url + "/ping")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	t.Fatalf("mirror at %s never became ready", url)
}

var idLine = regexp.MustCompile(`ID: (\d+)`)

func TestFullWorkflow(t *testing.T) {
	if testing.Short() {
		t.Skip("builds binaries and starts a server")
	}

	projectRoot, _ := filepath.Abs("..")
	liftBin := build(t, projectRoot, "lift")
	mirrorBin := build(t, projectRoot, "lift-mirror")

	addr := freeAddr(t)
	serverURL := "http://" + addr
	mirrorEnv := append(os.Environ(),
		"LIFT_MIRROR_SERVER_ADDRESS="+addr,
		"LIFT_MIRROR_STORE_DRIVER=memory",
		"LIFT_MIRROR_JWT_SECRET=integration-secret",
	)

	server := exec.Command(mirrorBin, "serve", "--config-dir", t.TempDir())
	server.Env = mirrorEnv
	if err := server.Start(); err != nil {
		t.Fatalf("Failed to start mirror: %v", err)
	}
	t.Cleanup(func() {
		_ = server.Process.Signal(os.Interrupt)
		_ = server.Wait()
	})
	waitForPing(t, serverURL)

	tokenCmd := exec.Command(mirrorBin, "token", "--user", "harper", "--config-dir", t.TempDir())
	tokenCmd.Env = mirrorEnv
	tokenOut, err := tokenCmd.Output()
	if err != nil {
		t.Fatalf("Failed to issue token: %v", err)
	}
	token := strings.TrimSpace(string(tokenOut))

	device := func() func(args ...string) (string, error) {
		home := t.TempDir()
		env := append(os.Environ(),
			"XDG_DATA_HOME="+filepath.Join(home, "data"),
			"XDG_CONFIG_HOME="+filepath.Join(home, "config"),
		)
		return func(args ...string) (string, error) {
			cmd := exec.Command(liftBin, args...)
			cmd.Env = env
			output, err := cmd.CombinedOutput()
			return string(output), err
		}
	}

	laptop := device()

	output, err := laptop("sync", "login", "--server", serverURL, "--token", token)
	if err != nil {
		t.Fatalf("Failed to log in: %v\n%s", err, output)
	}
	if !strings.Contains(output, "Logged in as harper") {
		t.Errorf("Expected login confirmation, got: %s", output)
	}

	output, err = laptop("workout", "start", "Integration Day")
	if err != nil {
		t.Fatalf("Failed to start workout: %v\n%s", err, output)
	}

	output, err = laptop("exercise", "add", "Barbell_Squat")
	if err != nil {
		t.Fatalf("Failed to add exercise: %v\n%s", err, output)
	}
	m := idLine.FindStringSubmatch(output)
	if m == nil {
		t.Fatalf("Expected exercise id in output, got: %s", output)
	}

	output, err = laptop("set", "add", m[1], "--weight", "100", "--reps", "5", "--done")
	if err != nil {
		t.Fatalf("Failed to add set: %v\n%s", err, output)
	}

	output, err = laptop("sync", "status")
	if err != nil {
		t.Fatalf("Failed to get status: %v\n%s", err, output)
	}
	for _, want := range []string{"User: harper", "Unsynced sets:      0", "Pending deletes:    0"} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected %q in status, got: %s", want, output)
		}
	}

	phone := device()
	if output, err := phone("sync", "login", "--server", serverURL, "--token", token); err != nil {
		t.Fatalf("Failed to log in second device: %v\n%s", err, output)
	}
	output, err = phone("sync", "pull")
	if err != nil {
		t.Fatalf("Failed to pull: %v\n%s", err, output)
	}
	if !strings.Contains(output, "Workouts:  1 new") {
		t.Errorf("Expected one pulled workout, got: %s", output)
	}

	output, err = phone("workout", "list")
	if err != nil {
		t.Fatalf("Failed to list workouts: %v\n%s", err, output)
	}
	if !strings.Contains(output, "Integration Day") {
		t.Errorf("Expected pulled workout in list, got: %s", output)
	}
}
