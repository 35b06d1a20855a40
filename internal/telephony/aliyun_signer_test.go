package telephony

import "testing"

func TestSignPOP_Deterministic(t *testing.T) {
	params := map[string]string{
		"Action":       "SmartCall",
		"CalledNumber": "8613800138000",
		"Format":       "JSON",
	}
	a := signPOP("POST", params, "secret")
	b := signPOP("POST", params, "secret")
	if a == "" {
		t.Fatalf("expected non-empty signature")
	}
	if a != b {
		t.Fatalf("signing is not deterministic: %q vs %q", a, b)
	}
}

func TestSignPOP_KnownVector(t *testing.T) {
	// Golden vector; the algorithm must interoperate with the vendor
	// byte-for-byte, so this must never change.
	sig := signPOP("POST", map[string]string{"A": "1", "B": "x y"}, "testsecret")
	const want = "gdRHAbqZRGOTjn/U0DiwNWS4kHY="
	if sig != want {
		t.Fatalf("signature mismatch: got %q want %q", sig, want)
	}
}

func TestSignPOP_SecretChangesSignature(t *testing.T) {
	params := map[string]string{"A": "1"}
	if signPOP("POST", params, "s1") == signPOP("POST", params, "s2") {
		t.Fatalf("expected different secrets to produce different signatures")
	}
}

func TestPopEncode_StrictReservedSet(t *testing.T) {
	// The vendor scheme escapes characters the common encoder leaves literal.
	got := popEncode("!'()* ~a-_.")
	want := "%21%27%28%29%2A%20~a-_."
	if got != want {
		t.Fatalf("popEncode mismatch: got %q want %q", got, want)
	}
}
