package classifier

// Weights holds every constant the filename and content classifiers score
// with, plus the row-scan caps. DefaultWeights returns the tuned values;
// configuration may override any of them under the "scoring" key.
type Weights struct {
	FilenameFullName       float64 `mapstructure:"filename_full_name" json:"filename_full_name"`
	FilenameID             float64 `mapstructure:"filename_id" json:"filename_id"`
	FilenameAliasToken     float64 `mapstructure:"filename_alias_token" json:"filename_alias_token"`
	FilenameAliasSubstring float64 `mapstructure:"filename_alias_substring" json:"filename_alias_substring"`
	FilenameWordToken      float64 `mapstructure:"filename_word_token" json:"filename_word_token"`
	FilenameWordBase       float64 `mapstructure:"filename_word_base" json:"filename_word_base"`
	FilenameWordPerRune    float64 `mapstructure:"filename_word_per_rune" json:"filename_word_per_rune"`
	FilenameWordMax        float64 `mapstructure:"filename_word_max" json:"filename_word_max"`
	FilenameTermGate       float64 `mapstructure:"filename_term_gate" json:"filename_term_gate"`
	FilenameBankingTerm    float64 `mapstructure:"filename_banking_term" json:"filename_banking_term"`
	FilenameFloor          float64 `mapstructure:"filename_floor" json:"filename_floor"`
	BannerFullName         float64 `mapstructure:"banner_full_name" json:"banner_full_name"`
	BannerWord             float64 `mapstructure:"banner_word" json:"banner_word"`
	HeaderExact            float64 `mapstructure:"header_exact" json:"header_exact"`
	HeaderPartial          float64 `mapstructure:"header_partial" json:"header_partial"`
	HeaderRowFound         float64 `mapstructure:"header_row_found" json:"header_row_found"`
	FingerprintUnique      float64 `mapstructure:"fingerprint_unique" json:"fingerprint_unique"`
	FingerprintRepeat      float64 `mapstructure:"fingerprint_repeat" json:"fingerprint_repeat"`
	FingerprintRepeatMax   float64 `mapstructure:"fingerprint_repeat_max" json:"fingerprint_repeat_max"`
	DateMatch              float64 `mapstructure:"date_match" json:"date_match"`
	DateMatchMax           float64 `mapstructure:"date_match_max" json:"date_match_max"`
	ContentFloor           float64 `mapstructure:"content_floor" json:"content_floor"`
	BannerRows             int     `mapstructure:"banner_rows" json:"banner_rows"`
	HeaderScanRows         int     `mapstructure:"header_scan_rows" json:"header_scan_rows"`
	DateSamples            int     `mapstructure:"date_samples" json:"date_samples"`
	MinWordLength          int     `mapstructure:"min_word_length" json:"min_word_length"`
}

// DefaultWeights returns the standard scoring table.
func DefaultWeights() Weights {
	return Weights{
		FilenameFullName:       1.0,
		FilenameID:             0.8,
		FilenameAliasToken:     0.9,
		FilenameAliasSubstring: 0.7,
		FilenameWordToken:      0.6,
		FilenameWordBase:       0.1,
		FilenameWordPerRune:    0.05,
		FilenameWordMax:        0.4,
		FilenameTermGate:       0.2,
		FilenameBankingTerm:    0.1,
		FilenameFloor:          0.2,
		BannerFullName:         10.0,
		BannerWord:             3.0,
		HeaderExact:            2.0,
		HeaderPartial:          0.5,
		HeaderRowFound:         8.0,
		FingerprintUnique:      2.0,
		FingerprintRepeat:      0.1,
		FingerprintRepeatMax:   3.0,
		DateMatch:              0.3,
		DateMatchMax:           3.0,
		ContentFloor:           2.0,
		BannerRows:             10,
		HeaderScanRows:         20,
		DateSamples:            10,
		MinWordLength:          3,
	}
}

// normalized replaces non-positive scan caps with their defaults so a
// partially filled Weights never disables a stage by accident.
func (w Weights) normalized() Weights {
	d := DefaultWeights()
	if w.BannerRows <= 0 {
		w.BannerRows = d.BannerRows
	}
	if w.HeaderScanRows <= 0 {
		w.HeaderScanRows = d.HeaderScanRows
	}
	if w.DateSamples <= 0 {
		w.DateSamples = d.DateSamples
	}
	if w.MinWordLength <= 0 {
		w.MinWordLength = d.MinWordLength
	}
	return w
}
