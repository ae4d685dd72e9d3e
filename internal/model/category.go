package model

// UncategorizedCategory is the reserved label for transactions that match none
// of the user's categories.
const UncategorizedCategory = "Uncategorized"
