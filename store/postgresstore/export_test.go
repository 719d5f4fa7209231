package postgresstore

// Truncate exposes table cleanup to the external test package.
var Truncate = (*Store).truncate
