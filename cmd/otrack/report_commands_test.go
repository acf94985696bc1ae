package main

import "testing"

func TestStagesCommandListsCatalog(t *testing.T) {
	out, _, err := runCLI(t, []string{"stages"}, "")
	if err != nil {
		t.Fatalf("stages: %v", err)
	}
	requireContains(t, out, "== INCO ==")
	requireContains(t, out, "== ANTI ==")
	requireContains(t, out, "Recepcion")
	requireContains(t, out, "hand-off")
}

func TestDoctorReportsChecks(t *testing.T) {
	env := setupCLITestEnv(t)
	out := env.mustRun(t, "doctor")
	requireContains(t, out, "Data directory:")
	requireContains(t, out, "Database:")
	requireNotContains(t, out, "[ERROR]")
}

func TestHistoryRejectsNegativeLimit(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, err := env.run(t, "history", "--limit", "-1"); err == nil {
		t.Fatal("expected negative limit to fail")
	}
}

func TestUserList(t *testing.T) {
	env := setupCLITestEnv(t)
	requireContains(t, env.mustRun(t, "user", "list"), "No users registered")
	env.mustRun(t, "user", "add", "Bob@Example.com")
	requireContains(t, env.mustRun(t, "user", "list"), "bob@example.com")
}
