// Command heapctl exercises fixed heaps from the command line: reference
// scenarios, randomized soak tests, SAS token generation and heap image files.
package main

func main() {
	execute()
}
