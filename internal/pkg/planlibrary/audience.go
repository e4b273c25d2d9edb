package planlibrary

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Audience resolves the actors that share an organization with actorID.
// Plans with organization visibility owned by a peer are readable.
type Audience interface {
	Peers(ctx context.Context, actorID string) ([]string, error)
}

// OwnerOnly has no organizations, so organization plans behave like private ones.
type OwnerOnly struct{}

func (OwnerOnly) Peers(context.Context, string) ([]string, error) {
	return nil, nil
}

// StaticAudience serves memberships from a fixed table.
type StaticAudience struct {
	members map[string][]string
}

func NewStaticAudience(orgs map[string][]string) *StaticAudience {
	members := make(map[string][]string, len(orgs))
	for org, users := range orgs {
		members[org] = append([]string(nil), users...)
	}
	return &StaticAudience{members: members}
}

// Peers returns every member of every organization actorID belongs to,
// excluding actorID itself.
func (a *StaticAudience) Peers(_ context.Context, actorID string) ([]string, error) {
	seen := map[string]struct{}{}
	for _, users := range a.members {
		if !contains(users, actorID) {
			continue
		}
		for _, u := range users {
			if u != actorID {
				seen[u] = struct{}{}
			}
		}
	}
	peers := make([]string, 0, len(seen))
	for u := range seen {
		peers = append(peers, u)
	}
	sort.Strings(peers)
	return peers, nil
}

// ParseOrganizations reads "org1:u1,u2;org2:u3".
func ParseOrganizations(raw string) (map[string][]string, error) {
	orgs := map[string][]string{}
	for _, entry := range strings.Split(raw, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		name, list, ok := strings.Cut(entry, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid organization entry %q", entry)
		}
		for _, u := range strings.Split(list, ",") {
			if u = strings.TrimSpace(u); u != "" && !contains(orgs[name], u) {
				orgs[name] = append(orgs[name], u)
			}
		}
	}
	return orgs, nil
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
