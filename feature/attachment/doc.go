// Package attachment stores item photos in object storage. Each item keeps
// at most one photo; uploading a new one replaces the old object and the
// item row records the object key.
package attachment
