package discovery

// SelectFirst returns the first instance, or false when there is none.
func SelectFirst(instances []ServiceInstance) (ServiceInstance, bool) {
	if len(instances) == 0 {
		return ServiceInstance{}, false
	}
	return instances[0], true
}
