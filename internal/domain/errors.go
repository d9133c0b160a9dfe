package domain

import "errors"

// Analytics failures. Callers match these with errors.Is; producers wrap them with context.
var (
	// ErrInsufficientAssets means fewer than 2 assets had usable price data.
	ErrInsufficientAssets = errors.New("insufficient assets")
	// ErrInsufficientHistory means fewer than 10 aligned return observations remained.
	ErrInsufficientHistory = errors.New("insufficient history")
	// ErrDegenerateCovariance means a covariance matrix could not be formed at all.
	ErrDegenerateCovariance = errors.New("degenerate covariance")
	// ErrInvalidSimulationParameters covers non-positive counts and non-finite drift/scale.
	ErrInvalidSimulationParameters = errors.New("invalid simulation parameters")

	ErrWeightMismatch            = errors.New("weight vector does not match asset order")
	ErrInvalidWeights            = errors.New("invalid weight vector")
	ErrInvalidFrontierParameters = errors.New("invalid frontier parameters")
	ErrAssetUnavailable          = errors.New("asset data unavailable")
	ErrDuplicateAsset            = errors.New("duplicate asset")
	ErrUnknownProfile            = errors.New("unknown risk profile")
)
