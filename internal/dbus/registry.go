package dbus

// registry pairs open bus ids with the toasts showing them.
// It is not safe for concurrent use; the server guards it.
type registry struct {
	toastByBus map[uint32]string
	busByToast map[string]uint32
}

func newRegistry() *registry {
	return &registry{
		toastByBus: make(map[uint32]string),
		busByToast: make(map[string]uint32),
	}
}

// bind shows busID on toastID, dropping whatever either side was bound to.
func (r *registry) bind(busID uint32, toastID string) {
	if old, ok := r.toastByBus[busID]; ok {
		delete(r.busByToast, old)
	}
	if old, ok := r.busByToast[toastID]; ok {
		delete(r.toastByBus, old)
	}
	r.toastByBus[busID] = toastID
	r.busByToast[toastID] = busID
}

func (r *registry) toast(busID uint32) (string, bool) {
	id, ok := r.toastByBus[busID]
	return id, ok
}

// releaseBus unbinds busID and returns the toast it was shown on.
func (r *registry) releaseBus(busID uint32) (string, bool) {
	toastID, ok := r.toastByBus[busID]
	if !ok {
		return "", false
	}
	delete(r.toastByBus, busID)
	delete(r.busByToast, toastID)
	return toastID, true
}

// releaseToast unbinds toastID and returns its bus id.
func (r *registry) releaseToast(toastID string) (uint32, bool) {
	busID, ok := r.busByToast[toastID]
	if !ok {
		return 0, false
	}
	delete(r.busByToast, toastID)
	delete(r.toastByBus, busID)
	return busID, true
}

func (r *registry) len() int {
	return len(r.toastByBus)
}
