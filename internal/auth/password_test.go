package auth

import (
	"encoding/hex"
	"testing"
)

// TestValidatePasswordPolicy はパスワードポリシー判定を検証する。
func TestValidatePasswordPolicy(t *testing.T) {
	tests := []struct {
		name     string
		password string
		want     bool
	}{
		{name: "英数字8文字", password: "passw0rd", want: true},
		{name: "長い英数字", password: "abcdefgh12345678", want: true},
		{name: "7文字", password: "passw0r", want: false},
		{name: "数字なし", password: "password", want: false},
		{name: "英字なし", password: "12345678", want: false},
		{name: "記号を含む", password: "passw0rd!", want: false},
		{name: "空白を含む", password: "pass w0rd", want: false},
		{name: "空文字", password: "", want: false},
		{name: "マルチバイト文字を含む", password: "pásswörd1", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidatePasswordPolicy(tt.password); got != tt.want {
				t.Errorf("ValidatePasswordPolicy(%q) = %v, want %v", tt.password, got, tt.want)
			}
		})
	}
}

// TestHashAndVerifyPassword はハッシュ化と照合の往復を検証する。
func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("passw0rd")
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}
	if hash == "passw0rd" {
		t.Fatal("hash must differ from the plain password")
	}

	ok, err := VerifyPassword(hash, "passw0rd")
	if err != nil {
		t.Fatalf("VerifyPassword returned error: %v", err)
	}
	if !ok {
		t.Error("expected matching password to verify")
	}
}

// TestVerifyPassword_Mismatch は不一致が(false, nil)になることを検証する。
func TestVerifyPassword_Mismatch(t *testing.T) {
	hash, err := HashPassword("passw0rd")
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}

	ok, err := VerifyPassword(hash, "wrongpass1")
	if err != nil {
		t.Fatalf("mismatch must not be an error, got: %v", err)
	}
	if ok {
		t.Error("expected mismatch to return false")
	}
}

// TestVerifyPassword_BrokenHash は不正なハッシュでerrorになることを検証する。
func TestVerifyPassword_BrokenHash(t *testing.T) {
	_, err := VerifyPassword("not-a-bcrypt-hash", "passw0rd")
	if err == nil {
		t.Fatal("expected error for broken hash")
	}
}

// TestGenerateResetCode はリセットコードの形式と一意性を検証する。
func TestGenerateResetCode(t *testing.T) {
	code, err := GenerateResetCode()
	if err != nil {
		t.Fatalf("GenerateResetCode returned error: %v", err)
	}
	if len(code) != 64 {
		t.Errorf("code length = %d, want 64", len(code))
	}
	if _, err := hex.DecodeString(code); err != nil {
		t.Errorf("code is not hex: %v", err)
	}

	other, err := GenerateResetCode()
	if err != nil {
		t.Fatalf("GenerateResetCode returned error: %v", err)
	}
	if code == other {
		t.Error("expected codes to be unique")
	}
}

// TestGeneratePlaceholderPassword はプレースホルダーが通常入力と一致しないことを検証する。
func TestGeneratePlaceholderPassword(t *testing.T) {
	hash, err := GeneratePlaceholderPassword()
	if err != nil {
		t.Fatalf("GeneratePlaceholderPassword returned error: %v", err)
	}

	for _, password := range []string{"", "passw0rd", "placeholder1"} {
		ok, err := VerifyPassword(hash, password)
		if err != nil {
			t.Fatalf("VerifyPassword returned error: %v", err)
		}
		if ok {
			t.Errorf("placeholder hash must not match %q", password)
		}
	}
}
