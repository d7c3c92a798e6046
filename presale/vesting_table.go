package presale

import (
	"math/big"
)

// VestingTable is the ordered list of contribution tiers. Index 0 is the
// default tier: it always exists, its amounts are placeholders and only its
// cliff and duration are meaningful. Every later range satisfies
// start < end and start > end of the range before it.
type VestingTable []VestingRange

func NewVestingTable(defaultCliff, defaultDuration uint64) VestingTable {
	return VestingTable{{
		StartAmount:   "0",
		EndAmount:     "0",
		CliffDuration: defaultCliff,
		VestDuration:  defaultDuration,
	}}
}

// SelectTier returns the range whose [start, end) contains amount, or the
// default tier when the amount falls outside every configured range.
func (t VestingTable) SelectTier(amount *big.Int) VestingRange {
	for _, r := range t[1:] {
		start, end, err := r.bounds()
		if err != nil {
			continue
		}
		if amount.Cmp(start) >= 0 && amount.Cmp(end) < 0 {
			return r
		}
	}
	return t[0]
}

func (t VestingTable) Append(r VestingRange) (VestingTable, error) {
	if err := t.validateAt(len(t), r); err != nil {
		return nil, err
	}
	return append(t, r), nil
}

func (t VestingTable) Update(index int, r VestingRange) (VestingTable, error) {
	if index < 0 || index >= len(t) {
		return nil, configError(ErrIndexOutOfRange, "invalid index %d, table has %d ranges", index, len(t))
	}

	updated := make(VestingTable, len(t))
	copy(updated, t)

	if index == 0 {
		if r.VestDuration == 0 || r.CliffDuration > r.VestDuration {
			return nil, configError(ErrInvalidRange, "cliff %d exceeds duration %d", r.CliffDuration, r.VestDuration)
		}
		updated[0].CliffDuration = r.CliffDuration
		updated[0].VestDuration = r.VestDuration
		return updated, nil
	}

	if err := t.validateAt(index, r); err != nil {
		return nil, err
	}
	updated[index] = r
	return updated, nil
}

// validateAt checks r as if it sat at position index, against its neighbours
// index-1 and index+1.
func (t VestingTable) validateAt(index int, r VestingRange) error {
	start, end, err := r.bounds()
	if err != nil {
		return err
	}
	if end.Cmp(start) <= 0 {
		return configError(ErrInvalidRange, "end range %s must be greater than start range %s", r.EndAmount, r.StartAmount)
	}
	if r.VestDuration == 0 || r.CliffDuration > r.VestDuration {
		return configError(ErrInvalidRange, "cliff %d exceeds duration %d", r.CliffDuration, r.VestDuration)
	}

	_, prevEnd, err := t[index-1].bounds()
	if err != nil {
		return err
	}
	if start.Cmp(prevEnd) <= 0 {
		return configError(ErrInvalidOrdering, "start range %s must be greater than previous end range %s", r.StartAmount, t[index-1].EndAmount)
	}

	if index+1 < len(t) {
		nextStart, _, err := t[index+1].bounds()
		if err != nil {
			return err
		}
		if end.Cmp(nextStart) >= 0 {
			return configError(ErrInvalidOrdering, "end range %s must be lower than next start range %s", r.EndAmount, t[index+1].StartAmount)
		}
	}

	return nil
}

func (r VestingRange) bounds() (*big.Int, *big.Int, error) {
	start, err := parseAmount("start range", r.StartAmount)
	if err != nil {
		return nil, nil, err
	}
	end, err := parseAmount("end range", r.EndAmount)
	if err != nil {
		return nil, nil, err
	}
	return start, end, nil
}
