// Package scope implements target scope enforcement. Module runs against
// hosts outside the declared engagement scope are blocked before execution.
package scope

import (
	"fmt"
	"net"
	"strings"

	"github.com/talon-framework/talon/internal/core"
)

// Checker evaluates whether a target falls within the session scope.
type Checker struct {
	scope core.Scope
}

// NewChecker creates a scope checker for the given scope declaration.
func NewChecker(scope core.Scope) *Checker {
	return &Checker{scope: scope}
}

// CheckHost verifies a target host is in scope. An empty scope declaration
// places no restriction.
func (c *Checker) CheckHost(host string) error {
	if len(c.scope.Hosts) == 0 && len(c.scope.CIDRs) == 0 {
		return nil
	}

	for _, h := range c.scope.Hosts {
		if strings.EqualFold(h, host) {
			return nil
		}
	}

	if ip := net.ParseIP(host); ip != nil {
		for _, cidr := range c.scope.CIDRs {
			_, network, err := net.ParseCIDR(cidr)
			if err != nil {
				continue
			}
			if network.Contains(ip) {
				return nil
			}
		}
	}

	return &Violation{
		Target: host,
		Reason: fmt.Sprintf("host %s is not in scope (allowed: %s)", host, c.describe()),
	}
}

// IsInScope returns true when the host passes the scope check.
func (c *Checker) IsInScope(host string) bool {
	return c.CheckHost(host) == nil
}

func (c *Checker) describe() string {
	allowed := append([]string{}, c.scope.Hosts...)
	allowed = append(allowed, c.scope.CIDRs...)
	return strings.Join(allowed, ", ")
}

// Violation represents an out-of-scope target.
type Violation struct {
	Target string
	Reason string
}

func (v *Violation) Error() string {
	return fmt.Sprintf("scope violation [%s]: %s", v.Target, v.Reason)
}

// IsViolation checks if an error is a scope violation.
func IsViolation(err error) bool {
	_, ok := err.(*Violation)
	return ok
}
