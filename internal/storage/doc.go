// Package storage is the object store that uploaded videos and thumbnails
// are written to.
//
// Objects are addressed by bucket and name and are publicly reachable under
// <baseURL>/files/<bucket>/<name>. Local keeps them on disk below a root
// directory, writing each object atomically so readers never observe a
// partial file.
package storage
