package nn

import (
	"errors"
	"fmt"
	"slices"

	"github.com/born-ml/lora/internal/tensor"
)

// ErrStateDictKeys is returned by a strict LoadStateDict when keys are
// missing or unexpected.
var ErrStateDictKeys = errors.New("state dict keys do not match model")

// LoadResult reports the keys a LoadStateDict call could not match.
type LoadResult struct {
	Missing    []string // Model parameters absent from the state dict
	Unexpected []string // State dict keys that name no model parameter
}

// LoadStateDict copies tensors from sd into the matching parameters of m in
// place.
//
// With strict == false, missing and unexpected keys are tolerated and only
// reported in the result. A shape mismatch on a matched key is always an
// error. Parameters shared between paths are written once per path.
//
// Nothing is written unless the load succeeds: shapes are checked, and in
// strict mode keys too, before any tensor is copied.
func LoadStateDict(m Module, sd StateDict, strict bool) (LoadResult, error) {
	type copyOp struct {
		dst, src *tensor.Tensor
	}

	var (
		res     LoadResult
		ops     []copyOp
		matched = make(map[string]struct{}, len(sd))
	)
	for path, p := range allParameters(m) {
		src, ok := sd[path]
		if !ok {
			res.Missing = append(res.Missing, path)
			continue
		}
		matched[path] = struct{}{}
		if dst := p.Tensor(); !dst.Shape().Equal(src.Shape()) {
			return res, fmt.Errorf("loading %s: shape mismatch: expected %v, got %v", path, dst.Shape(), src.Shape())
		}
		ops = append(ops, copyOp{dst: p.Tensor(), src: src})
	}

	for key := range sd {
		if _, ok := matched[key]; !ok {
			res.Unexpected = append(res.Unexpected, key)
		}
	}
	slices.Sort(res.Unexpected)

	if strict && (len(res.Missing) > 0 || len(res.Unexpected) > 0) {
		return res, fmt.Errorf("%w: missing %v, unexpected %v", ErrStateDictKeys, res.Missing, res.Unexpected)
	}

	for _, op := range ops {
		if err := op.dst.CopyFrom(op.src); err != nil {
			return res, err
		}
	}
	return res, nil
}
