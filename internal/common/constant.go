package common

// MaxUploadSizeBytes caps a single multipart upload. Requests above it are
// rejected with a validation error before the quota check runs.
const MaxUploadSizeBytes int64 = 50 * 1024 * 1024

// FileFormField is the multipart field carrying the image bytes.
const FileFormField = "file"
