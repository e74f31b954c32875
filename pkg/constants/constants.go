// Package constants provides shared constants for the finance-valuation application.
package constants

// FiscalYearLayout is the format expected for fiscal-year labels in datasets.
const FiscalYearLayout = "2006"

// Valuation assumption defaults applied when the caller leaves a field unset.
const (
	// DefaultRevenueGrowthRate is the per-year fractional revenue growth
	DefaultRevenueGrowthRate = 0.05

	// DefaultTerminalGrowthRate is the perpetuity growth rate after the horizon
	DefaultTerminalGrowthRate = 0.03

	// DefaultWACC is the discount rate
	DefaultWACC = 0.10

	// DefaultTaxRate is used when the dataset carries no tax rate for the latest year
	DefaultTaxRate = 0.25

	// DefaultProjectionYears is the explicit forecast horizon
	DefaultProjectionYears = 5

	// MaxProjectionYears caps the explicit forecast horizon
	MaxProjectionYears = 50

	// DefaultEBITGrowthDamping scales revenue growth for EBIT growth
	DefaultEBITGrowthDamping = 0.8

	// DefaultCapexGrowthDamping scales revenue growth for capex growth
	DefaultCapexGrowthDamping = 0.5

	// DefaultExitMultiple is the EV/EBITDA multiple for the exit-multiple method
	DefaultExitMultiple = 5.5
)

// Terminal value methods
const (
	// TerminalMethodPerpetuity values cash flows beyond the horizon with the Gordon growth model
	TerminalMethodPerpetuity = "perpetuityGrowth"

	// TerminalMethodExitMultiple values the business at the horizon as a multiple of EBITDA
	TerminalMethodExitMultiple = "exitMultiple"
)

// Plausibility bounds used for assumption warnings.
const (
	// MaxPlausibleGrowthRate is the largest revenue growth rate accepted without a warning
	MaxPlausibleGrowthRate = 0.50

	// MinPlausibleGrowthRate is the most negative revenue growth rate accepted
	MinPlausibleGrowthRate = -0.50

	// MaxPlausibleWACC is the largest discount rate accepted without a warning
	MaxPlausibleWACC = 0.40

	// FairValueBandPct is the premium, in percent either side of zero, within
	// which a share is considered fairly valued
	FairValueBandPct = 5.0
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"

	// OutputFormatJSON is the report encoded as JSON, as served over HTTP
	OutputFormatJSON = "json"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// ExampleConfigFile is the example configuration file name
	ExampleConfigFile = "config.yaml.example"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address for the API
	DefaultServerAddress = ":8080"

	// DefaultMaxUploadSizeBytes is the default maximum upload size for YAML configs (256 KB)
	DefaultMaxUploadSizeBytes int64 = 256 * 1024
)

// Numeric constants
const (
	// DecimalPrecision is the precision for currency rounding (2 decimal places)
	DecimalPrecision = 100

	// CurrencyTolerance is the tolerance for currency comparisons (1 cent)
	CurrencyTolerance = 0.01

	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100.0

	// DefaultWorkers bounds concurrent scenario and sensitivity runs
	DefaultWorkers = 8
)
