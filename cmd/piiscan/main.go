// Command piiscan scans a database for PII from the command line
package main

func main() {
	Execute()
}
