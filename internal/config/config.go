package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
	"strings" // strings parses list-valued variables
	"time"    // time interprets weekday names

	"github.com/salones-cra/booking-api/internal/schedule"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  The types reflect how the values are used in
// the application: strings for identifiers and secrets, ints for durations and costs.
type Config struct {
	Env            string // application environment (e.g. "dev", "prod")
	Port           string // HTTP port to listen on
	DBUser         string // database username
	DBPass         string // database password (optional)
	DBHost         string // database host address
	DBPort         string // database port number
	DBName         string // database name
	JWTSecret      string // secret used to sign JWTs
	AccessTTLMin   int    // access token time-to-live in minutes
	RefreshTTLDays int    // refresh token time-to-live in days
	BcryptCost     int    // bcrypt cost for password hashing
	EmailDomain    string // institutional email domain required at registration
	Rules          schedule.Rules // booking calendar rules (open/close hours, weekdays)
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.  Calendar rules are
// optional and fall back to the standard school schedule (Mon-Fri, 08:00
// to 18:00) when unset.
func Load() Config {
	return Config{
		Env:            must("APP_ENV"),  // environment (dev/test/prod)
		Port:           must("APP_PORT"), // port to bind the HTTP server
		DBUser:         must("DB_USER"),  // database user
		DBPass:         os.Getenv("DB_PASS"),
		DBHost:         must("DB_HOST"),
		DBPort:         must("DB_PORT"),
		DBName:         must("DB_NAME"),
		JWTSecret:      must("JWT_SECRET"),
		AccessTTLMin:   mustInt("ACCESS_TOKEN_TTL_MIN"),
		RefreshTTLDays: mustInt("REFRESH_TOKEN_TTL_DAYS"),
		BcryptCost:     mustInt("BCRYPT_COST"),
		EmailDomain:    envOr("INSTITUTIONAL_EMAIL_DOMAIN", "@colegio.edu.co"),
		Rules:          loadRules(),
	}
}

// loadRules builds the booking calendar from BOOKING_OPEN, BOOKING_CLOSE
// and BOOKING_WEEKDAYS.  Invalid values are fatal: running with a
// half-parsed calendar would silently accept or reject the wrong slots.
func loadRules() schedule.Rules {
	rules := schedule.DefaultRules()
	if v := os.Getenv("BOOKING_OPEN"); v != "" {
		t, err := schedule.ParseTimeOfDay(v)
		if err != nil {
			log.Fatalf("invalid BOOKING_OPEN: %q", v)
		}
		rules.Open = t
	}
	if v := os.Getenv("BOOKING_CLOSE"); v != "" {
		t, err := schedule.ParseTimeOfDay(v)
		if err != nil {
			log.Fatalf("invalid BOOKING_CLOSE: %q", v)
		}
		rules.Close = t
	}
	if rules.Open >= rules.Close {
		log.Fatalf("BOOKING_OPEN (%s) must be before BOOKING_CLOSE (%s)", rules.Open, rules.Close)
	}
	if v := os.Getenv("BOOKING_WEEKDAYS"); v != "" {
		days, err := parseWeekdays(v)
		if err != nil {
			log.Fatalf("invalid BOOKING_WEEKDAYS: %q", v)
		}
		rules.Weekdays = days
	}
	return rules
}

var weekdayNames = map[string]time.Weekday{
	"MON": time.Monday, "TUE": time.Tuesday, "WED": time.Wednesday,
	"THU": time.Thursday, "FRI": time.Friday, "SAT": time.Saturday,
	"SUN": time.Sunday,
}

// parseWeekdays accepts a comma-separated list of three-letter day names
// (e.g. "MON,TUE,WED,THU,FRI").
func parseWeekdays(s string) (map[time.Weekday]bool, error) {
	out := make(map[time.Weekday]bool)
	for _, p := range strings.Split(s, ",") {
		p = strings.ToUpper(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		d, ok := weekdayNames[p]
		if !ok {
			return nil, strconv.ErrSyntax
		}
		out[d] = true
	}
	if len(out) == 0 {
		return nil, strconv.ErrSyntax
	}
	return out, nil
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the retrieved string into an integer.
// If conversion fails, the application logs a fatal error and exits.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}

// envOr returns the variable's value or a default when unset.
func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
