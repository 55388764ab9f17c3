// Command heapctl boots the simulated kernel and drives its heap allocator
// from scripts and stress runs.
package main

func main() {
	execute()
}
