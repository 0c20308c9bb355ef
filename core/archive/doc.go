// Package archive provides the object-storage client used to offload
// oversized audit state blobs out of the database.
//
// The client is a thin interface over Minio so tests can substitute a
// mock (see the mocks subpackage).
package archive
