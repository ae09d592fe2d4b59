package symbols

import (
	"errors"
	"fmt"
)

// Validate checks that every entry is indexed under the name its symbol reports.
func (t *Table) Validate() error {
	if t == nil {
		return nil
	}
	var errs []error
	for _, name := range t.Names() {
		sym := t.byName[name]
		if sym == nil {
			errs = append(errs, fmt.Errorf("@%s: nil symbol", name))
			continue
		}
		if got := sym.SymbolName(); got != name {
			errs = append(errs, fmt.Errorf("@%s: indexed symbol reports name @%s", name, got))
		}
	}
	return errors.Join(errs...)
}
