// Package platform selects the kernel-parameter backend matching the
// running system: traditional GRUB on RPM distributions, the Debian
// update-grub variant, or rpm-ostree on immutable systems. Selection
// happens exactly once and the chosen backend is injected, so no other
// component ever probes the platform.
package platform
