package loom

// Segments exposes segments for testing.
var Segments = segments

// LooksLikePlanObject exposes looksLikePlanObject for testing.
var LooksLikePlanObject = looksLikePlanObject

// GroupTitle exposes groupTitle for testing.
var GroupTitle = groupTitle
