package cmd

import (
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

func startCmdForTest(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "start"}
	registerStartFlags(cmd)
	if err := cmd.ParseFlags(args); err != nil {
		t.Fatal(err)
	}
	return cmd
}

func TestValidateStartFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"defaults", nil, ""},
		{"explicit ports", []string{"-p", "9000", "--cluster-ports", "6016,6017"}, ""},
		{"remote master", []string{"--master", "alice@10.0.0.5"}, ""},
		{"api port with remote master", []string{"--master", "alice@10.0.0.5", "-p", "9000"}, "--api-port"},
		{"pem without remote master", []string{"--master-pem", "/keys/id.pem"}, "--master-pem requires --master"},
		{"remote master with no-slave", []string{"--master", "alice@10.0.0.5", "--no-slave"}, "--no-slave"},
		{"malformed remote master", []string{"--master", "nobody"}, "user[:password]@host"},
		{"single cluster port", []string{"--cluster-ports", "5016"}, "exactly 2 ports"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cmd := startCmdForTest(t, test.args...)
			err := validateStartFlags(cmd, nil)

			if test.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected validation error: %v", err)
				}
				return
			}

			if err == nil {
				t.Fatalf("expected an error mentioning '%s'", test.wantErr)
			}
			if !strings.Contains(err.Error(), test.wantErr) {
				t.Errorf("error '%v' should mention '%s'", err, test.wantErr)
			}
		})
	}
}

func TestUsageHint(t *testing.T) {
	hint := UsageHint(8080)
	if !strings.Contains(hint, "http://localhost:8080/translate") {
		t.Errorf("usage hint should reference the api port, got: %s", hint)
	}
}
