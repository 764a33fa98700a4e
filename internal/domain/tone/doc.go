// Package tone defines the reference to the sound played when the alarm fires.
package tone
