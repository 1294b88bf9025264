package auth_test

import (
	"context"
	"flag"
	"fmt"
	"maps"
	"net/http"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/aussiebroadwan/skygate/pkg/authsdk"
)

/*
 * Common constants and helper functions for auth service end-to-end tests.
 * This includes container setup, service operations, and assertions.
 */

const (
	testImageName = "skygate-auth-test:latest"

	bootstrapToken = "test-bootstrap-token-12345"
	superEmail     = "root@skygate.test"
	superName      = "Root"
	superPassword  = "Superadmin123!"

	// Any non-empty token passes while RECAPTCHA_SECRET is unset.
	recaptchaToken = "e2e"
)

// TestMain builds the Docker image once before all tests and cleans it up
// after they complete.
func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		fmt.Fprintln(os.Stdout, "Skipping auth e2e tests in short mode")
		os.Exit(0)
	}

	fmt.Fprintf(os.Stdout, "Building Auth Service Docker image...")

	if err := buildDockerImage(); err != nil {
		fmt.Fprintf(os.Stderr, "\nFailed to build Docker image: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stdout, " done\n")

	exitCode := m.Run()

	fmt.Fprintf(os.Stdout, "Cleaning up Auth Service Docker image...")
	cleanupDockerImage()
	fmt.Fprintf(os.Stdout, " done\n")

	os.Exit(exitCode)
}

func buildDockerImage() error {
	cmd := exec.CommandContext(context.Background(), "docker", "build",
		"-t", testImageName,
		"-f", "../../../cmd/auth/Dockerfile",
		"../../../")
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

func cleanupDockerImage() {
	cmd := exec.CommandContext(context.Background(), "docker", "rmi", "-f", testImageName)
	_ = cmd.Run() // image might not exist
}

// baseEnv is the container environment every test starts from.
func baseEnv() map[string]string {
	return map[string]string{
		"BOOTSTRAP_TOKEN":                 bootstrapToken,
		"AUTH_ISSUER":                     "skygate-auth-e2e",
		"AUTH_ALGORITHM":                  "EdDSA",
		"AUTH_NUM_KEYS":                   "1", // one key keeps rotation assertions simple
		"AUTH_MASTER_KEY":                 "e2e-master-key",
		"AUTH_REQUIRE_EMAIL_VERIFICATION": "false",
		"ENV":                             "test",
		"LOG_LEVEL":                       "info",
		"LOG_FORMAT":                      "json",
	}
}

// relaxedRateLimits keeps rapid test traffic under the limits.
func relaxedRateLimits() map[string]string {
	return map[string]string{
		"RATELIMIT_STRICT_REQUESTS":   "1000",
		"RATELIMIT_STRICT_WINDOW_SEC": "60",
		"RATELIMIT_STRICT_BURST":      "1000",
		"RATELIMIT_MODERATE_REQUESTS": "1000",
		"RATELIMIT_MODERATE_BURST":    "1000",
	}
}

// setupAuthContainer starts the service with relaxed rate limits. extra
// overrides individual variables.
func setupAuthContainer(t *testing.T, extra ...map[string]string) *authsdk.Client {
	t.Helper()

	env := baseEnv()
	maps.Copy(env, relaxedRateLimits())
	for _, e := range extra {
		maps.Copy(env, e)
	}
	return startContainer(t, env)
}

// setupAuthContainerWithDefaultRateLimits starts the service with the
// production rate limits, for tests that exercise limiting itself.
func setupAuthContainerWithDefaultRateLimits(t *testing.T) *authsdk.Client {
	t.Helper()
	return startContainer(t, baseEnv())
}

func startContainer(t *testing.T, env map[string]string) *authsdk.Client {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        testImageName,
			ExposedPorts: []string{"8080/tcp"},
			Env:          env,
			WaitingFor: wait.ForHTTP("/readyz").
				WithPort("8080/tcp").
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	mappedPort, err := container.MappedPort(ctx, "8080")
	require.NoError(t, err)
	host, err := container.Host(ctx)
	require.NoError(t, err)

	return authsdk.NewClient(fmt.Sprintf("http://%s:%s", host, mappedPort.Port()))
}

// bootstrapSuperadmin creates the first superadmin and logs in as it.
func bootstrapSuperadmin(t *testing.T, client *authsdk.Client) *authsdk.Session {
	t.Helper()

	resp, err := client.Bootstrap(t.Context(), authsdk.BootstrapRequest{
		Token:    bootstrapToken,
		Email:    superEmail,
		Password: superPassword,
		Name:     superName,
	})
	require.NoError(t, err, "Bootstrap should succeed")
	require.NotEmpty(t, resp.AccountID)

	session, err := client.LoginSession(t.Context(), superEmail, superPassword, recaptchaToken, "")
	require.NoError(t, err, "Superadmin login should succeed")
	return session
}

// registerUser creates a USER account through the public endpoint.
func registerUser(t *testing.T, client *authsdk.Client, email, password string) *authsdk.RegisterResponse {
	t.Helper()

	resp, err := client.RegisterUser(t.Context(), authsdk.RegisterRequest{
		Email:          email,
		Password:       password,
		Name:           "Traveller",
		RecaptchaToken: recaptchaToken,
	})
	require.NoError(t, err, "Registration should succeed")
	require.Equal(t, "USER", resp.Role)
	return resp
}

// currentCode returns the TOTP code for secret right now.
func currentCode(t *testing.T, secret string) string {
	t.Helper()

	code, err := totp.GenerateCode(secret, time.Now())
	require.NoError(t, err)
	return code
}

// assertStatus checks that err is an API error with the given status.
func assertStatus(t *testing.T, err error, code int, context string) {
	t.Helper()
	require.Error(t, err, context)
	require.True(t, authsdk.IsStatus(err, code), "%s - expected HTTP %d (%s), got: %v", context, code, http.StatusText(code), err)
}

// assertHealthy verifies a health check response is OK.
func assertHealthy(t *testing.T, health *authsdk.HealthResponse, err error) {
	t.Helper()
	require.NoError(t, err)
	require.NotNil(t, health)
	require.Equal(t, "ok", health.Status)
}
