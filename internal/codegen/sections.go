package codegen

import (
	"fmt"
	"strings"
)

// printIntRoutine writes %rax as a signed decimal followed by a newline.
const printIntRoutine = `print_int:
    push %rbp
    mov %rsp, %rbp
    push %rbx
    sub $40, %rsp
    mov %rax, %rcx
    lea -9(%rbp), %rsi
    movb $10, (%rsi)
    dec %rsi
    mov $1, %rbx
    xor %r8d, %r8d
    test %rcx, %rcx
    jge .Lprint_digits
    neg %rcx
    mov $1, %r8b
.Lprint_digits:
    xor %rdx, %rdx
    mov %rcx, %rax
    mov $10, %rdi
    div %rdi
    mov %rax, %rcx
    add $48, %dl
    movb %dl, (%rsi)
    dec %rsi
    inc %rbx
    test %rcx, %rcx
    jnz .Lprint_digits
    test %r8b, %r8b
    jz .Lprint_write
    movb $45, (%rsi)
    dec %rsi
    inc %rbx
.Lprint_write:
    inc %rsi
    mov $1, %rax
    mov $1, %rdi
    mov %rbx, %rdx
    syscall
    add $40, %rsp
    pop %rbx
    pop %rbp
    ret
`

// assemble lays out the final file: runtime, functions, entry point, then
// the scratch memory block.
func (cg *CodeGen) assemble() string {
	var out strings.Builder

	out.WriteString(".global _start\n")
	out.WriteString(".text\n\n")
	out.WriteString(printIntRoutine)

	for _, name := range cg.order {
		def := cg.functions[name]
		if def.Inline {
			continue
		}
		fmt.Fprintf(&out, "\n# fn %s\n", def.Name)
		def.Code.render(&out)
	}

	out.WriteString("\n_start:\n")
	cg.main.code.render(&out)
	fragment{
		op("mov $60, %%rax"),
		op("xor %%rdi, %%rdi"),
		op("syscall"),
	}.render(&out)

	out.WriteString("\n.section .bss\n")
	out.WriteString(".balign 8\n")
	out.WriteString("mem:\n")
	fmt.Fprintf(&out, "    .skip %d\n", cg.opts.MemCapacity*slotSize)

	out.WriteString("\n.section .note.GNU-stack,\"\",@progbits\n")
	return out.String()
}
