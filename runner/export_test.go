package runner

// TailTruncate exposes tailTruncate for testing.
var TailTruncate = tailTruncate
