package lora

import (
	"fmt"
	"log/slog"

	"github.com/born-ml/lora/internal/nn"
)

// Prepare empties the adapter history of every adapter in model. It must be
// called before the first Append.
func Prepare(model nn.Module) {
	_, ps := adapters(model)
	for _, p := range ps {
		p.ResetHistory()
	}
}

// Append loads sd into model permissively and then snapshots the active
// factors of every adapter onto its history.
//
// Keys of sd that name no parameter, and parameters absent from sd, are not
// errors; they are returned in the result and logged at debug level. A shape
// mismatch on a matching key is an error: no tensor is written and nothing is
// snapshotted.
func Append(model nn.Module, sd nn.StateDict) (nn.LoadResult, error) {
	res, err := nn.LoadStateDict(model, sd, false)
	if err != nil {
		return res, err
	}
	if len(res.Unexpected) > 0 {
		slog.Debug("ignored adapter keys", "count", len(res.Unexpected), "keys", res.Unexpected)
	}

	_, ps := adapters(model)
	for _, p := range ps {
		p.AppendActive()
	}
	return res, nil
}

// LoadMultiple prepares model and appends each state dict in order, so that
// Select(model, i) activates stateDicts[i].
//
// The histories persist until the next LoadMultiple or Prepare.
func LoadMultiple(model nn.Module, stateDicts []nn.StateDict) error {
	Prepare(model)
	for i, sd := range stateDicts {
		if _, err := Append(model, sd); err != nil {
			return fmt.Errorf("loading adapter %d: %w", i, err)
		}
	}
	slog.Debug("loaded adapters", "count", len(stateDicts))
	return nil
}

// Select makes history entry index the active pair on every adapter.
//
// All adapters are checked before any is switched: if index is out of range
// for any of them, the returned error wraps nn.ErrAdapterIndex and names the
// adapter path, and the model is unchanged.
func Select(model nn.Module, index int) error {
	paths, ps := adapters(model)
	for i, p := range ps {
		if err := p.CheckIndex(index); err != nil {
			return fmt.Errorf("selecting adapter at %s: %w", paths[i], err)
		}
	}
	for _, p := range ps {
		if err := p.SelectAdapter(index); err != nil {
			return err
		}
	}
	return nil
}
