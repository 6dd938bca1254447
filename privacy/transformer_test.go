package privacy

import (
	"strings"
	"testing"

	"github.com/BaSui01/fedsearch/types"
)

func testNode(id string, tier types.PrivacyTier) *types.Node {
	return &types.Node{
		ID:          id,
		Name:        id,
		Endpoint:    "https://" + id + ".example.com",
		Domain:      "medical",
		PrivacyTier: tier,
	}
}

func TestTransformPublicPassesThrough(t *testing.T) {
	tr, err := NewTransformer(DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("NewTransformer: %v", err)
	}

	out, err := tr.Transform("diabetes research trends", testNode("pub", types.TierPublic), types.UserContext{})
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	if out.Payload != "diabetes research trends" {
		t.Errorf("public payload = %q, want verbatim query", out.Payload)
	}
	if out.Encrypted {
		t.Error("public payload must not be encrypted")
	}
}

func TestTransformStrictModeGeneralizesPublic(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Mode = ModeStrict
	tr, err := NewTransformer(cfg, nil)
	if err != nil {
		t.Fatalf("NewTransformer: %v", err)
	}

	out, err := tr.Transform("email bob@example.com the summary", testNode("pub", types.TierPublic), types.UserContext{})
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	if !strings.Contains(out.Payload, "[EMAIL]") {
		t.Errorf("strict mode should generalize public payloads: %q", out.Payload)
	}
	if out.Redactions == 0 {
		t.Error("expected redaction count")
	}
}

func TestTransformConfidentialGeneralizes(t *testing.T) {
	tr, err := NewTransformer(DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("NewTransformer: %v", err)
	}

	out, err := tr.Transform(
		"Contact John at 555-123-4567 or SSN 123-45-6789",
		testNode("conf", types.TierConfidential), types.UserContext{})
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	if !strings.Contains(out.Payload, "[PHONE]") || !strings.Contains(out.Payload, "[SSN]") {
		t.Errorf("confidential payload = %q, want PII placeholders", out.Payload)
	}
	if out.Redactions != 2 {
		t.Errorf("redactions = %d, want 2", out.Redactions)
	}
	if out.Encrypted {
		t.Error("confidential payload must not be encrypted")
	}
}

func TestTransformRestrictedEncrypts(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SharedSecret = "federation-secret"
	tr, err := NewTransformer(cfg, nil)
	if err != nil {
		t.Fatalf("NewTransformer: %v", err)
	}

	query := "patient treatment outcomes"
	out, err := tr.Transform(query, testNode("res", types.TierRestricted), types.UserContext{})
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	if !out.Encrypted {
		t.Fatal("restricted payload must be encrypted")
	}
	if strings.Contains(out.Payload, "patient") || strings.Contains(out.Payload, "treatment") {
		t.Errorf("restricted payload leaks plaintext: %q", out.Payload)
	}

	// 持有共享密钥的节点侧可以还原扰动后的查询
	c, _ := NewQueryCipher(cfg.SharedSecret)
	plain, err := c.Decrypt(out.Payload)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if len(strings.Fields(plain)) != len(strings.Fields(query)) {
		t.Errorf("perturbed query token count changed: %q", plain)
	}
}

// 受限节点缺少密钥时必须失败, 绝不退回明文.
func TestTransformRestrictedFailsClosedWithoutSecret(t *testing.T) {
	tr, err := NewTransformer(DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("NewTransformer: %v", err)
	}

	out, err := tr.Transform("secret query", testNode("res", types.TierRestricted), types.UserContext{})
	if err == nil {
		t.Fatalf("expected error, got payload %q", out.Payload)
	}
	if !types.IsCode(err, types.ErrEncryptionFailed) {
		t.Errorf("error = %v, want ENCRYPTION_FAILED", err)
	}
	if out != nil {
		t.Error("failed transform must not return a payload")
	}
}

func TestTransformUnknownTierFailsClosed(t *testing.T) {
	tr, err := NewTransformer(DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("NewTransformer: %v", err)
	}

	_, err = tr.Transform("query", testNode("odd", types.PrivacyTier("internal")), types.UserContext{})
	if err == nil {
		t.Fatal("expected error for unknown tier")
	}
	if !types.IsCode(err, types.ErrPrivacyViolation) {
		t.Errorf("error = %v, want PRIVACY_VIOLATION", err)
	}
}

func TestTransformerRejectsBadSecretConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SharedSecret = "ok"
	if _, err := NewTransformer(cfg, nil); err != nil {
		t.Fatalf("valid secret rejected: %v", err)
	}
}
