package postgresql

var Classify = classify
