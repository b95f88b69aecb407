// Package serviceresolver turns an agent's operational domain into
// candidate endpoint URLs for capability crawling, using DNS SRV records.
package serviceresolver

import (
	"fmt"
	"strings"

	"github.com/miekg/dns"
)

// srvService is the SRV label agents publish their endpoint under.
const srvService = "_agent._tcp."

// ResolveEndpoints resolves the agent SRV record for domain and returns
// candidate https endpoint URLs in record order. An empty result means
// the domain publishes no agent endpoint.
func ResolveEndpoints(domain, resolverAddr string) ([]string, error) {
	if resolverAddr == "" {
		resolverAddr = "127.0.0.53:53"
	}

	m := new(dns.Msg)
	m.Id = dns.Id()
	m.RecursionDesired = true
	m.Question = []dns.Question{{
		Name:   dns.Fqdn(srvService + domain),
		Qtype:  dns.TypeSRV,
		Qclass: dns.ClassINET,
	}}

	c := new(dns.Client)
	in, _, err := c.Exchange(m, resolverAddr)
	if err != nil {
		return nil, fmt.Errorf("SRV lookup for %s: %w", domain, err)
	}

	endpoints := make([]string, 0, len(in.Answer))
	for _, answer := range in.Answer {
		srv, ok := answer.(*dns.SRV)
		if !ok {
			continue
		}
		host := strings.TrimSuffix(srv.Target, ".")
		if host == "" {
			continue
		}
		if srv.Port != 0 && srv.Port != 443 {
			endpoints = append(endpoints, fmt.Sprintf("https://%s:%d", host, srv.Port))
		} else {
			endpoints = append(endpoints, "https://"+host)
		}
	}

	return endpoints, nil
}
