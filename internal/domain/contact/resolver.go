package contact

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"webhook-bridge/utils/platformerrors"
)

// Hints are the independently-unreliable identifying attributes used to
// resolve a person in the directory.
type Hints struct {
	Email string
	Phone string
}

func (h Hints) empty() bool {
	return h.Email == "" && h.Phone == ""
}

// Resolver finds existing contacts for a set of identity hints. Creation is
// a distinct, explicit operation so that "find" and "find-or-create" remain
// separately testable and composable.
type Resolver struct {
	directory Directory
}

// NewResolver creates a new contact resolver.
func NewResolver(directory Directory) *Resolver {
	return &Resolver{directory: directory}
}

// Resolve issues one directory lookup per non-empty hint, concurrently, and
// deduplicates the results by contact id. A failed individual lookup only
// fails that hint; resolution proceeds on partial results and errors out
// only when every hint fails.
func (r *Resolver) Resolve(ctx context.Context, hints Hints) ([]Contact, error) {
	if hints.empty() {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain,
			platformerrors.ErrorTypeValidation, "no identity hints to resolve", nil)
	}

	type lookup struct {
		field string
		value string
	}
	lookups := make([]lookup, 0, 2)
	if hints.Email != "" {
		lookups = append(lookups, lookup{field: "email", value: hints.Email})
	}
	if hints.Phone != "" {
		lookups = append(lookups, lookup{field: "phone", value: hints.Phone})
	}

	results := make([][]Contact, len(lookups))
	errs := make([]error, len(lookups))

	var wg sync.WaitGroup
	for i, l := range lookups {
		wg.Add(1)
		go func(i int, l lookup) {
			defer wg.Done()
			found, err := r.directory.SearchByAttribute(ctx, l.field, l.value)
			if err != nil {
				log.Warn().Err(err).Str("field", l.field).Msg("contact lookup failed")
				errs[i] = err
				return
			}
			results[i] = found
		}(i, l)
	}
	wg.Wait()

	var lastErr error
	failed := 0
	seen := make(map[string]struct{})
	var contacts []Contact
	for i := range lookups {
		if errs[i] != nil {
			failed++
			lastErr = errs[i]
			continue
		}
		for _, c := range results[i] {
			if _, dup := seen[c.ID]; dup {
				continue
			}
			seen[c.ID] = struct{}{}
			contacts = append(contacts, c)
		}
	}

	if failed == len(lookups) {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain,
			platformerrors.ErrorTypeUpstream, "all contact lookups failed", lastErr)
	}
	return contacts, nil
}

// ResolveOrCreate resolves the hints and, when nothing matches, explicitly
// creates a contact from them.
func (r *Resolver) ResolveOrCreate(ctx context.Context, hints Hints) (*Contact, error) {
	contacts, err := r.Resolve(ctx, hints)
	if err != nil {
		return nil, err
	}
	if len(contacts) > 0 {
		return &contacts[0], nil
	}

	log.Info().Str("email", hints.Email).Msg("contact not found in directory, creating")
	created, err := r.directory.CreateContact(ctx, CreateAttrs{Email: hints.Email, Phone: hints.Phone})
	if err != nil {
		return nil, err
	}
	return created, nil
}
