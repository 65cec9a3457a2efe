package catalog

import (
	"encoding/json"
	"strings"
	"testing"

	"shakeout/server/internal/game/effects"
	"shakeout/server/internal/game/modes"
	"shakeout/server/internal/game/roles"
)

func TestDefaultRegistersEverything(t *testing.T) {
	r := Default()

	for _, mode := range []string{modes.KeyClassic, modes.KeyDeathCount, modes.KeyRoleBased, modes.KeyDomination} {
		found := false
		for _, name := range r.ModeNames() {
			found = found || name == mode
		}
		if !found {
			t.Fatalf("mode %q missing from %v", mode, r.ModeNames())
		}
	}
	for _, role := range []string{roles.KeyVillager, roles.KeyBeast, roles.KeyVampire, roles.KeyBodyguard} {
		if !r.HasRole(role) {
			t.Fatalf("role %q missing", role)
		}
	}
	if got := len(r.EffectNames()); got != 7 {
		t.Fatalf("expected 7 effects, got %d", got)
	}
	if _, err := r.NewEffect(effects.TypeShield, 0); err != nil {
		t.Fatalf("shield: %v", err)
	}
}

func TestModeConfigSchemaListsFields(t *testing.T) {
	data, err := json.Marshal(ModeConfigSchema())
	if err != nil {
		t.Fatalf("marshal schema: %v", err)
	}
	doc := string(data)
	for _, field := range []string{`"roundDurationMs"`, `"damagePolicy"`, `"countdownSeconds"`, `"Shakeout Mode Configuration"`} {
		if !strings.Contains(doc, field) {
			t.Fatalf("schema missing %s: %s", field, doc)
		}
	}
	if !strings.Contains(doc, `"death-count"`) {
		t.Fatalf("expected the mode enum in the schema")
	}
}
