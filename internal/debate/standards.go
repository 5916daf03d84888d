package debate

// EvaluationStandards are the criteria the debate judges a modularized
// codebase against. Each standard is worth one point per chunk.
var EvaluationStandards = []string{
	"Confirm that all core functionalities and workflows from the original code (e.g., critical functions, input-output behaviors, side effects) still exist and produce the same outcomes in the modularized version.",
	"Check if functionality is split into modules based on coherent responsibilities (e.g., a module focused on user interfaces, another on core business logic, etc.) without creating unnecessary fragmentation or inter-dependencies.",
	"Ensure constant values, configuration settings, or environment references are unchanged and are now placed in the most logical module or file (e.g., a dedicated config module) without scattering them throughout the code.",
	"Verify that each module imports only what it needs (no unused or redundant imports) and that any external dependencies required by the original code are still present and correctly imported in the relevant module(s).",
	"Look for any syntactical mistakes, incorrect function signatures, or missing references that would prevent the code from executing. Confirm that module-to-module references (e.g., from foo import bar) match what's actually defined in the respective files.",
	"Confirm that functions, classes, and variables keep consistent naming with the original code, unless changed to improve clarity. In those cases, verify that references to the old names have been updated across all modules.",
	"Check that the order of function calls and the way parameters are passed among modules mirror the original logic. Any new abstractions should not alter the fundamental control flow or expected input-output transformations.",
	"Confirm that docstrings, inline comments, and other documentation from the original code are preserved or enhanced to explain the newly introduced module boundaries and responsibilities. Look for any missing or outdated references that might confuse future readers.",
	"Evaluate whether the modularized structure is clearer than the monolithic version. Check that related functions or classes are grouped logically, and that each file has a clear, singular responsibility, making the overall codebase easier to navigate.",
	"Inspect whether the modularization enables easier future changes, testability, or feature additions. Look for signs of good modular design, such as reduced code duplication, fewer tightly coupled components, and well-defined module interfaces.",
}

// Default debate cast. Profiles feed the prompt templates as persona context.
const (
	ProfileBob = "a meticulous and seasoned software engineer with a strong background in " +
		"large-scale distributed systems. Enjoys deep-diving into design patterns " +
		"and ensuring optimal performance for critical workflows."

	ProfileAlice = "an exacting Senior Quality Assurance Engineer who prioritizes robust test " +
		"coverage and risk mitigation. Known for being highly skeptical of unchecked " +
		"assumptions and passionate about enforcing best practices in QA."

	ProfileCharlie = "a neutral debate reviewer with years of experience in software project " +
		"management and technical writing. Skilled at synthesizing diverse viewpoints " +
		"and driving fair, well-reasoned conclusions."

	ProfileSarah = "a seasoned Software Engineer Team Leader with a decade of experience " +
		"translating complex technical details into actionable insights. Skilled " +
		"at synthesizing diverse viewpoints, guiding architectural discussions, " +
		"and fostering cross-functional consensus."

	ProfileSteven = "Senior manager"
)
