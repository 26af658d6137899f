package core

import "smartcare/internal/core/coretest"

var (
	_ DoctorStore      = (*coretest.Store)(nil)
	_ AppointmentStore = (*coretest.Store)(nil)
	_ SessionStore     = (*coretest.Store)(nil)
	_ FileStore        = (*coretest.Store)(nil)
	_ ReadingStore     = (*coretest.Store)(nil)
	_ BlobStorage      = (*coretest.Blobs)(nil)
	_ Publisher        = (*coretest.Publisher)(nil)
)
