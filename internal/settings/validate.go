package settings

import (
	"net/netip"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	validator "github.com/go-playground/validator/v10"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"

	"github.com/retailgrid/settings-engine/internal/i18n"
)

// FieldErrors maps dotted field paths to localized messages. An empty map
// means the checked scope is valid.
type FieldErrors map[string]string

var (
	hexRGBPattern = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)
	phonePattern  = regexp.MustCompile(`^\+?[0-9][0-9\s\-().]{5,19}$`)
)

// ValidHexColor reports whether s is a #RGB or #RRGGBB hex color.
func ValidHexColor(s string) bool {
	return hexRGBPattern.MatchString(s)
}

// ValidPhone reports whether s looks like an international phone number.
// The pattern is deliberately permissive.
func ValidPhone(s string) bool {
	return phonePattern.MatchString(s)
}

// ValidIPv4CIDR reports whether s is a dotted-quad IPv4 address, optionally
// followed by a /0-32 prefix length.
func ValidIPv4CIDR(s string) bool {
	addr, rest := s, ""
	if i := strings.IndexByte(s, '/'); i >= 0 {
		addr, rest = s[:i], s[i+1:]
		prefix, err := strconv.Atoi(rest)
		if err != nil || prefix < 0 || prefix > 32 || rest != strconv.Itoa(prefix) {
			return false
		}
	}

	parsed, err := netip.ParseAddr(addr)
	return err == nil && parsed.Is4()
}

// ValidClockTime reports whether s is a 24-hour HH:MM wall-clock string.
func ValidClockTime(s string) bool {
	if len(s) != 5 {
		return false
	}
	_, err := time.Parse("15:04", s)
	return err == nil
}

// ValidLanguageTag reports whether s parses as a BCP-47 language tag.
func ValidLanguageTag(s string) bool {
	if s == "" {
		return false
	}
	_, err := language.Parse(s)
	return err == nil
}

// ValidCurrencyCode reports whether s is a known ISO-4217 currency code.
func ValidCurrencyCode(s string) bool {
	_, err := currency.ParseISO(s)
	return err == nil
}

// ValidDisplayName reports whether s is a usable display name: non-empty,
// at most 100 characters, no control characters.
func ValidDisplayName(s string) bool {
	if s == "" || len([]rune(s)) > 100 {
		return false
	}
	return !strings.ContainsFunc(s, unicode.IsControl)
}

// ValidBio reports whether s fits the bio constraints: at most 500
// characters, no control characters beyond ordinary whitespace.
func ValidBio(s string) bool {
	if len([]rune(s)) > 500 {
		return false
	}
	return !strings.ContainsFunc(s, func(r rune) bool {
		if r == '\n' || r == '\r' || r == '\t' {
			return false
		}
		return unicode.IsControl(r)
	})
}

// Validator checks bundle sections against their field constraints. It is
// stateless apart from the compiled rule set and safe for concurrent use.
type Validator struct {
	validate *validator.Validate
	tr       i18n.Translator
}

// NewValidator compiles the rule set. Messages are resolved through tr;
// pass nil to fall back to the builtin English catalog.
func NewValidator(tr i18n.Translator) *Validator {
	if tr == nil {
		tr = i18n.Default()
	}

	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	mustRegister(v, "hexrgb", func(fl validator.FieldLevel) bool {
		return ValidHexColor(fl.Field().String())
	})
	mustRegister(v, "phoneintl", func(fl validator.FieldLevel) bool {
		return ValidPhone(fl.Field().String())
	})
	mustRegister(v, "ipv4cidr", func(fl validator.FieldLevel) bool {
		return ValidIPv4CIDR(fl.Field().String())
	})
	mustRegister(v, "clocktime", func(fl validator.FieldLevel) bool {
		return ValidClockTime(fl.Field().String())
	})
	mustRegister(v, "langtag", func(fl validator.FieldLevel) bool {
		return ValidLanguageTag(fl.Field().String())
	})
	mustRegister(v, "currencyiso", func(fl validator.FieldLevel) bool {
		return ValidCurrencyCode(fl.Field().String())
	})
	mustRegister(v, "nocontrol", func(fl validator.FieldLevel) bool {
		return !strings.ContainsFunc(fl.Field().String(), unicode.IsControl)
	})
	mustRegister(v, "biotext", func(fl validator.FieldLevel) bool {
		return ValidBio(fl.Field().String())
	})

	return &Validator{validate: v, tr: tr}
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(err)
	}
}

// Section validates one section of the bundle. It never mutates b and never
// returns an error for malformed values; they simply show up in the map.
func (v *Validator) Section(b *Bundle, section Section) FieldErrors {
	if b == nil {
		return FieldErrors{}
	}

	switch section {
	case SectionProfile:
		return v.check(section, b.Profile)
	case SectionTheme:
		return v.check(section, b.Theme)
	case SectionRegional:
		return v.check(section, b.Regional)
	case SectionSecurity:
		return v.check(section, b.Security)
	case SectionNotifications:
		return v.check(section, b.Notifications)
	default:
		return FieldErrors{}
	}
}

// All validates every section and unions the results.
func (v *Validator) All(b *Bundle) FieldErrors {
	merged := FieldErrors{}
	for _, section := range Sections() {
		for field, message := range v.Section(b, section) {
			merged[field] = message
		}
	}
	return merged
}

func (v *Validator) check(section Section, value any) FieldErrors {
	errs := FieldErrors{}

	err := v.validate.Struct(value)
	if err == nil {
		return errs
	}

	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return errs
	}

	for _, fe := range fieldErrs {
		path := string(section) + "." + trimNamespace(fe.Namespace())
		errs[path] = v.tr.T(messageKey(fe.Field(), fe.Tag()))
	}

	return errs
}

// trimNamespace drops the struct-type prefix from a validator namespace,
// keeping nested fields and slice indexes ("Security.ipWhitelist[1]" ->
// "ipWhitelist[1]").
func trimNamespace(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

// messageKey resolves the i18n key for a failed rule. Field names are the
// json names reported by the validator.
func messageKey(field, tag string) string {
	switch field {
	case "displayName":
		switch tag {
		case "required":
			return "validation.name.required"
		case "max":
			return "validation.name.length"
		default:
			return "validation.name.characters"
		}
	case "email":
		return "validation.email"
	case "phone":
		return "validation.phone"
	case "bio":
		if tag == "max" {
			return "validation.bio.length"
		}
		return "validation.bio.characters"
	case "primaryColor":
		return "validation.color"
	case "language":
		return "validation.language"
	case "currency":
		return "validation.currency"
	case "timezone":
		return "validation.timezone"
	case "firstDayOfWeek":
		return "validation.first_day"
	case "sessionTimeoutMinutes":
		return "validation.session_timeout"
	case "passwordExpiryDays":
		return "validation.password_expiry"
	case "maxLoginAttempts":
		return "validation.login_attempts"
	case "passwordHistorySize":
		return "validation.password_history"
	case "start", "end":
		return "validation.quiet_hours"
	default:
		if strings.HasPrefix(field, "ipWhitelist") {
			return "validation.ip"
		}
		return "validation.option"
	}
}
