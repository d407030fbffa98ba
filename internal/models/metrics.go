package models

// ComparisonRecord holds train/test vocabulary metrics for one tokenizer.
// Processing times are wall-clock seconds.
type ComparisonRecord struct {
	TrainVocabSize      int     `json:"train_vocab_size"`
	TestVocabSize       int     `json:"test_vocab_size"`
	OOVRate             float64 `json:"oov_rate"`
	VocabularyOverlap   float64 `json:"vocabulary_overlap"`
	TrainProcessingTime float64 `json:"train_processing_time"`
	TestProcessingTime  float64 `json:"test_processing_time"`
	AvgTokenLength      float64 `json:"avg_token_length"`
}

// SubwordMetricRecord holds fragmentation and throughput metrics for one
// subword tokenizer over held-out text.
type SubwordMetricRecord struct {
	TotalWords        int     `json:"total_words"`
	TotalTokens       int     `json:"total_tokens"`
	FragmentedWords   int     `json:"fragmented_words"`
	FragmentationRate float64 `json:"fragmentation_rate"`
	CompressionRatio  float64 `json:"compression_ratio"`
	AvgProcessingTime float64 `json:"avg_processing_time"`
	TokensPerSecond   float64 `json:"tokens_per_second"`
	SkippedTexts      int     `json:"skipped_texts"`
}

// TransformRecord is the effect of one token transform on a token sequence.
type TransformRecord struct {
	Tokens           []string `json:"tokens"`
	Count            int      `json:"count"`
	DistinctCount    int      `json:"distinct_count"`
	ProcessingTime   float64  `json:"processing_time"`
	CompressionRatio float64  `json:"compression_ratio"`
	Error            string   `json:"error,omitempty"`
}
