package validator

import (
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/YasiruR/walletkit/domain"
	"github.com/YasiruR/walletkit/domain/models"
	"github.com/pkg/errors"
)

const (
	maxFieldLength = 64
	timeLayout  = `2006-01-02T15:04:05.000Z`
)

const (
	stateActive    = `active`
	stateInactive  = `inactive`
	stateCompleted = `completed`
	stateExpired   = `expired`
)

var states = map[string]bool{stateActive: true, stateInactive: true, stateCompleted: true, stateExpired: true}

// Pass checks models and instances before they are sent to the wallet gateway
type Pass struct {
	now func() time.Time
}

func NewPass() *Pass {
	return &Pass{now: time.Now}
}

func (p *Pass) ValidateModel(obj models.HwWalletObject) error {
	return required([]field{
		{`passTypeIdentifier`, obj.PassTypeIdentifier},
		{`passStyleIdentifier`, obj.PassStyleIdentifier},
		{`organizationName`, obj.OrganizationName},
		{`passVersion`, obj.PassVersion},
	})
}

// ValidateInstance checks the identifiers of an instance and, if present, the
// consistency of its status with the current time
func (p *Pass) ValidateInstance(obj models.HwWalletObject) error {
	if err := required([]field{
		{`passTypeIdentifier`, obj.PassTypeIdentifier},
		{`passStyleIdentifier`, obj.PassStyleIdentifier},
		{`organizationPassId`, obj.OrganizationPassID},
		{`serialNumber`, obj.SerialNumber},
	}); err != nil {
		return err
	}

	if obj.Fields == nil || obj.Fields.Status == nil {
		return nil
	}
	return p.validateStatus(*obj.Fields.Status)
}

func (p *Pass) validateStatus(s models.Status) error {
	// state is optional, a status may carry only its validity period
	if s.State != `` {
		state := strings.ToLower(s.State)
		if !states[state] {
			return invalid(`unknown status state (%s)`, s.State)
		}
		if state == stateExpired {
			return invalid(`instance is already expired`)
		}
	}

	if s.EffectTime == `` && s.ExpireTime == `` {
		return nil
	}
	if s.EffectTime == `` || s.ExpireTime == `` {
		return invalid(`effectTime and expireTime must be set together`)
	}

	effect, err := parseTime(s.EffectTime)
	if err != nil {
		return invalid(`invalid effectTime (%s)`, s.EffectTime)
	}

	expire, err := parseTime(s.ExpireTime)
	if err != nil {
		return invalid(`invalid expireTime (%s)`, s.ExpireTime)
	}

	if expire.Before(effect) {
		return invalid(`expireTime is before effectTime`)
	}
	if expire.Before(p.now()) {
		return invalid(`expireTime (%s) has already passed`, s.ExpireTime)
	}

	return nil
}

func parseTime(val string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, val)
	if err == nil {
		return t, nil
	}
	return time.Parse(timeLayout, val)
}

type field struct {
	name  string
	value string
}

// required fails for missing fields first, then for the first field longer than maxFieldLength
func required(fields []field) error {
	var missing []string
	for _, f := range fields {
		if strings.TrimSpace(f.value) == `` {
			missing = append(missing, f.name)
		}
	}

	if len(missing) > 0 {
		sort.Strings(missing)
		return invalid(`missing required fields %v`, missing)
	}

	for _, f := range fields {
		if utf8.RuneCountInString(f.value) > maxFieldLength {
			return invalid(`%s exceeds %d characters`, f.name, maxFieldLength)
		}
	}
	return nil
}

func invalid(format string, args ...interface{}) error {
	return errors.Wrap(domain.ErrValidation, fmt.Sprintf(format, args...))
}
