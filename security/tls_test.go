package security

import (
	"crypto/tls"
	"testing"

	"github.com/kbukum/shoplist/security/tlstest"
)

func TestBuildDisabled(t *testing.T) {
	var nilCfg *TLSConfig
	for name, c := range map[string]*TLSConfig{"nil": nilCfg, "zero": {}} {
		got, err := c.Build()
		if err != nil || got != nil {
			t.Errorf("%s: Build() = %v, %v; want nil, nil", name, got, err)
		}
	}
}

func TestBuildEnabledOnly(t *testing.T) {
	got, err := (&TLSConfig{Enabled: true}).Build()
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.MinVersion != tls.VersionTLS12 || got.RootCAs != nil {
		t.Errorf("Build() = %+v, want system roots and TLS 1.2", got)
	}
}

func TestBuildWithCertificates(t *testing.T) {
	certs := tlstest.GenerateTLSCerts(t)
	c := &TLSConfig{CAFile: certs.CAFile, CertFile: certs.CertFile, KeyFile: certs.KeyFile, ServerName: "localhost"}

	got, err := c.Build()
	if err != nil {
		t.Fatal(err)
	}
	if got.RootCAs == nil {
		t.Error("CA pool not loaded")
	}
	if len(got.Certificates) != 1 {
		t.Errorf("client certificates = %d, want 1", len(got.Certificates))
	}
	if got.ServerName != "localhost" {
		t.Errorf("server name = %q", got.ServerName)
	}
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name string
		cfg  TLSConfig
	}{
		{"missing ca", TLSConfig{CAFile: "/nonexistent/ca.pem"}},
		{"invalid ca", TLSConfig{CAFile: tlstest.WriteInvalidPEM(t, "ca.pem")}},
		{"cert without key", TLSConfig{CertFile: "/etc/client.pem"}},
		{"missing pair", TLSConfig{CertFile: "/nonexistent/c.pem", KeyFile: "/nonexistent/k.pem"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.cfg.Build(); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestValidate(t *testing.T) {
	if err := (&TLSConfig{KeyFile: "k.pem"}).Validate(); err == nil {
		t.Error("key without certificate should fail")
	}
	if err := (&TLSConfig{CertFile: "c.pem", KeyFile: "k.pem"}).Validate(); err != nil {
		t.Errorf("pair should validate: %v", err)
	}
}
