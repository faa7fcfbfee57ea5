package gate

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Policy is the route table the gate evaluates. Public entries are exact
// paths or "prefix/*" patterns; prefix lists match whole path segments.
type Policy struct {
	SignInPath          string   `yaml:"sign_in_path"`
	CallbackParam       string   `yaml:"callback_param"`
	DefaultRoute        string   `yaml:"default_route"`
	PartnerDefaultRoute string   `yaml:"partner_default_route"`
	Public              []string `yaml:"public"`
	AdminPrefixes       []string `yaml:"admin_prefixes"`
	PartnerPrefixes     []string `yaml:"partner_prefixes"`
	UserPrefixes        []string `yaml:"user_prefixes"`
}

// DefaultPolicy is the marketplace route table.
func DefaultPolicy() Policy {
	return Policy{
		SignInPath:          "/auth/signin",
		CallbackParam:       "callbackUrl",
		DefaultRoute:        "/",
		PartnerDefaultRoute: "/partner/dashboard",
		Public: []string{
			"/",
			"/about",
			"/contact",
			"/favicon.ico",
			"/auth/*",
			"/lawyers/*",
			"/services/*",
			"/blog/*",
			"/_next/*",
			"/static/*",
			"/api/auth/*",
			"/api/otp/*",
			"/api/catalog/*",
			"/health-check/*",
		},
		AdminPrefixes:   []string{"/admin", "/api/admin"},
		PartnerPrefixes: []string{"/partner", "/api/partner"},
		UserPrefixes:    []string{"/account", "/orders", "/checkout", "/api/orders"},
	}
}

// LoadPolicy returns DefaultPolicy overlaid with the YAML file at path.
// Keys absent from the file keep their defaults; an empty path means no file.
func LoadPolicy(path string) (Policy, error) {
	p := DefaultPolicy()
	if path == "" {
		return p, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, fmt.Errorf("read route policy: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		return Policy{}, fmt.Errorf("parse route policy %s: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return Policy{}, fmt.Errorf("route policy %s: %w", path, err)
	}
	return p, nil
}

// Validate rejects tables that would redirect in a loop.
func (p Policy) Validate() error {
	var errs []error
	for _, f := range []struct{ name, value string }{
		{"sign_in_path", p.SignInPath},
		{"default_route", p.DefaultRoute},
		{"partner_default_route", p.PartnerDefaultRoute},
	} {
		if !strings.HasPrefix(f.value, "/") {
			errs = append(errs, fmt.Errorf("%s must be an absolute path, got %q", f.name, f.value))
		}
	}
	if p.CallbackParam == "" {
		errs = append(errs, errors.New("callback_param is required"))
	}
	if !matchesPublic(p.Public, p.SignInPath) {
		errs = append(errs, fmt.Errorf("sign_in_path %q must be public", p.SignInPath))
	}
	if underAny(p.AdminPrefixes, p.DefaultRoute) || underAny(p.PartnerPrefixes, p.DefaultRoute) {
		errs = append(errs, fmt.Errorf("default_route %q must not be role restricted", p.DefaultRoute))
	}
	if underAny(p.AdminPrefixes, p.PartnerDefaultRoute) || underAny(p.UserPrefixes, p.PartnerDefaultRoute) {
		errs = append(errs, fmt.Errorf("partner_default_route %q must be reachable by partners", p.PartnerDefaultRoute))
	}
	for _, pat := range p.Public {
		if !strings.HasPrefix(pat, "/") {
			errs = append(errs, fmt.Errorf("public pattern %q must start with /", pat))
		}
	}
	return errors.Join(errs...)
}

// matchesPublic reports whether path equals a pattern or, for "prefix/*"
// patterns, is the prefix or lies below it.
func matchesPublic(patterns []string, path string) bool {
	for _, pat := range patterns {
		if prefix, ok := strings.CutSuffix(pat, "/*"); ok {
			if path == prefix || strings.HasPrefix(path, prefix+"/") {
				return true
			}
			continue
		}
		if path == pat {
			return true
		}
	}
	return false
}

// underAny reports whether path is one of prefixes or below one of them,
// on segment boundaries: "/admin" covers "/admin/x" but not "/administer".
func underAny(prefixes []string, path string) bool {
	for _, p := range prefixes {
		p = strings.TrimSuffix(p, "/")
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}
