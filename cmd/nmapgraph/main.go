// Command nmapgraph turns nmap scan results into inventory host entities.
package main

func main() {
	Execute()
}
